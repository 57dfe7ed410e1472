package plans

import (
	"fmt"
	"log/slog"
	"time"

	"dojohub/entity"
	"dojohub/lib/sl"
)

type Database interface {
	CreatePlan(plan *entity.Plan) error
	GetPlans(gym string) ([]*entity.Plan, error)
	GetPlan(id string) (*entity.Plan, error)
	UpdatePlan(plan *entity.Plan) error
	DeletePlan(id string) error
}

type Service struct {
	db  Database
	log *slog.Logger
}

func New(db Database, log *slog.Logger) *Service {
	return &Service{
		db:  db,
		log: log.With(sl.Module("plans")),
	}
}

func (s *Service) Create(gym string, plan *entity.Plan) (*entity.Plan, error) {
	plan.Gym = gym
	plan.Active = true
	plan.CreatedAt = time.Now()
	if err := s.db.CreatePlan(plan); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}
	s.log.With(
		sl.Gym(gym),
		slog.String("plan_id", plan.Id.Hex()),
		slog.Int64("price", plan.Price),
	).Info("plan created")
	return plan, nil
}

func (s *Service) List(gym string) ([]*entity.Plan, error) {
	return s.db.GetPlans(gym)
}

func (s *Service) Get(gym, id string) (*entity.Plan, error) {
	plan, err := s.db.GetPlan(id)
	if err != nil {
		return nil, err
	}
	if plan.Gym != gym {
		return nil, fmt.Errorf("plan %s does not belong to gym %s", id, gym)
	}
	return plan, nil
}

func (s *Service) Update(gym string, plan *entity.Plan) (*entity.Plan, error) {
	current, err := s.Get(gym, plan.Id.Hex())
	if err != nil {
		return nil, err
	}
	plan.Gym = current.Gym
	plan.CreatedAt = current.CreatedAt
	if err = s.db.UpdatePlan(plan); err != nil {
		return nil, fmt.Errorf("update plan: %w", err)
	}
	return plan, nil
}

func (s *Service) Delete(gym, id string) error {
	if _, err := s.Get(gym, id); err != nil {
		return err
	}
	if err := s.db.DeletePlan(id); err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	s.log.With(sl.Gym(gym), slog.String("plan_id", id)).Info("plan deactivated")
	return nil
}
