package api

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dojohub/entity"
	"dojohub/impl/links"

	"github.com/stretchr/testify/assert"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// stubHandler satisfies the full Handler surface; tokens map straight to
// users so route guards can be exercised without a real auth service.
type stubHandler struct {
	users map[string]*entity.User
}

func (s *stubHandler) UserByToken(token string) (*entity.User, error) {
	user, ok := s.users[token]
	if !ok {
		return nil, fmt.Errorf("unknown token")
	}
	return user, nil
}

func (s *stubHandler) Login(_, _ string) (string, *entity.User, error) {
	return "", nil, fmt.Errorf("not configured")
}

func (s *stubHandler) GenerateLink(_ *entity.User, _ string) (*links.GeneratedLink, error) {
	return &links.GeneratedLink{}, nil
}

func (s *stubHandler) ListLinks(_ string) ([]*entity.RegistrationLink, error) { return nil, nil }

func (s *stubHandler) ValidateLink(_ string) *links.Validation {
	return &links.Validation{Error: links.MsgNotFound}
}

func (s *stubHandler) RevokeLink(_ string, _ *entity.User) error { return nil }
func (s *stubHandler) ExpireLink(_ string) error                 { return nil }

func (s *stubHandler) RegisterMember(_, _, _, _ string) (*entity.User, error) { return nil, nil }
func (s *stubHandler) ListMembers(_ string) ([]*entity.User, error)           { return nil, nil }
func (s *stubHandler) GetMember(_ *entity.User, _ string) (*entity.User, error) {
	return nil, nil
}
func (s *stubHandler) CreateMember(_ *entity.User, _ *entity.User, _ string) (*entity.User, error) {
	return nil, nil
}
func (s *stubHandler) UpdateMember(_ *entity.User, _ string, _ map[string]interface{}) (*entity.User, error) {
	return nil, nil
}

func (s *stubHandler) CreatePlan(_ string, _ *entity.Plan) (*entity.Plan, error) { return nil, nil }
func (s *stubHandler) ListPlans(_ string) ([]*entity.Plan, error)                { return nil, nil }
func (s *stubHandler) GetPlan(_, _ string) (*entity.Plan, error)                 { return nil, nil }
func (s *stubHandler) UpdatePlan(_ string, _ *entity.Plan) (*entity.Plan, error) { return nil, nil }
func (s *stubHandler) DeletePlan(_, _ string) error                              { return nil }

func (s *stubHandler) ListPayments(_ string) ([]*entity.Payment, error) { return nil, nil }

func (s *stubHandler) RecordCashPayment(gym, memberId, planId string) (*entity.Payment, error) {
	return &entity.Payment{Gym: gym, Member: memberId, Plan: planId, Status: entity.PaymentPaid}, nil
}

func (s *stubHandler) StartCheckout(gym, memberId, planId string) (*entity.Payment, error) {
	return &entity.Payment{
		Gym:         gym,
		Member:      memberId,
		Plan:        planId,
		Status:      entity.PaymentPending,
		SessionId:   "cs_test_1",
		CheckoutURL: "https://checkout.test/cs_test_1",
	}, nil
}

func (s *stubHandler) GetGym(_ string) (*entity.Gym, error) { return &entity.Gym{}, nil }
func (s *stubHandler) SaveGym(_ *entity.Gym) error          { return nil }

func (s *stubHandler) StripeVerifySignature(_ []byte, _ string, _ time.Duration) bool {
	return false
}
func (s *stubHandler) StripeEvent(_ *stripe.Event) {}

func testUser(role entity.Role) *entity.User {
	return &entity.User{
		Id:     primitive.NewObjectID(),
		Gym:    "gym-1",
		Email:  string(role) + "@example.com",
		Role:   role,
		Active: true,
	}
}

func testRouter() http.Handler {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := &stubHandler{users: map[string]*entity.User{
		"member-token": testUser(entity.RoleMember),
		"staff-token":  testUser(entity.RoleStaff),
	}}
	return newRouter(log, handler)
}

func doRequest(router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestPaymentRouteGuards(t *testing.T) {
	router := testRouter()
	checkoutBody := `{"member":"m1","plan":"p1"}`

	t.Run("member can start own checkout", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/payments/checkout", "member-token", checkoutBody)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("staff can start checkout", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/payments/checkout", "staff-token", checkoutBody)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("member cannot list payments", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/v1/payments/", "member-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("member cannot record cash payment", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/payments/cash", "member-token", checkoutBody)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff can list payments", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/v1/payments/", "staff-token", "")
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("unauthenticated checkout is rejected", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/payments/checkout", "", checkoutBody)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestLinkRouteGuards(t *testing.T) {
	router := testRouter()

	t.Run("member cannot generate links", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/registration-links/new", "member-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("staff cannot generate links", func(t *testing.T) {
		rec := doRequest(router, http.MethodPost, "/v1/registration-links/new", "staff-token", "")
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}
