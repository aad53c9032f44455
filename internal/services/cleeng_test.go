package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/desertthunder/ottx/internal/models"
	"github.com/desertthunder/ottx/internal/shared"
)

func newTestCleeng(t *testing.T, handler http.HandlerFunc) *CleengService {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCleengService(shared.CleengConfig{PublisherID: "123", BaseURL: server.URL}, nil, shared.NewLogger(io.Discard))
}

func writeEnvelope(w http.ResponseWriter, status int, errs []string, data any) {
	if errs == nil {
		errs = []string{}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"errors": errs, "responseData": data})
}

func TestCleengService(t *testing.T) {
	t.Run("Login", func(t *testing.T) {
		t.Run("Returns Auth Data", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPost || r.URL.Path != "/auths" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}

				var payload models.LoginPayload
				json.NewDecoder(r.Body).Decode(&payload)
				if payload.Email != "a@b.c" || payload.PublisherID != "123" {
					t.Errorf("unexpected payload %+v", payload)
				}

				writeEnvelope(w, http.StatusOK, nil, models.AuthData{JWT: "jwt", RefreshToken: "refresh"})
			})

			auth, err := srv.Login(context.Background(), models.LoginPayload{Email: "a@b.c", Password: "pw", PublisherID: "123"})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if auth.JWT != "jwt" || auth.RefreshToken != "refresh" {
				t.Errorf("unexpected auth data %+v", auth)
			}
		})

		t.Run("Envelope Errors Become ResponseError", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				writeEnvelope(w, http.StatusUnauthorized, []string{"Invalid credentials"}, nil)
			})

			_, err := srv.Login(context.Background(), models.LoginPayload{})

			var respErr *ResponseError
			if !errors.As(err, &respErr) {
				t.Fatalf("expected ResponseError, got %v", err)
			}
			if len(respErr.Errors) != 1 || respErr.Errors[0] != "Invalid credentials" {
				t.Errorf("unexpected errors %v", respErr.Errors)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Error("expected ResponseError to match ErrAPIRequest")
			}
		})
	})

	t.Run("RefreshToken", func(t *testing.T) {
		srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/auths/refresh_token" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			writeEnvelope(w, http.StatusOK, nil, map[string]string{"jwt": "new-jwt"})
		})

		auth, err := srv.RefreshToken(context.Background(), models.RefreshTokenPayload{RefreshToken: "r"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if auth.JWT != "new-jwt" || auth.RefreshToken != "" {
			t.Errorf("expected only jwt to be returned, got %+v", auth)
		}
	})

	t.Run("GetCustomer", func(t *testing.T) {
		t.Run("Sends Bearer And Decodes Numeric ID", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/customers/42" {
					t.Errorf("unexpected path %s", r.URL.Path)
				}
				if r.Header.Get("Authorization") != "Bearer jwt" {
					t.Errorf("expected bearer jwt, got %q", r.Header.Get("Authorization"))
				}
				w.Header().Set("Content-Type", "application/json")
				w.Write([]byte(`{"errors":[],"responseData":{"id":42,"email":"a@b.c","externalData":{"favorites":[{"mediaid":"m1"}]}}}`))
			})

			customer, err := srv.GetCustomer(context.Background(), "42", "jwt")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if customer.ID != "42" {
				t.Errorf("expected id 42, got %q", customer.ID)
			}
			if customer.ExternalData == nil || len(customer.ExternalData.Favorites) != 1 {
				t.Errorf("expected favorites in external data, got %+v", customer.ExternalData)
			}
		})

		t.Run("Server Error Without Envelope", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				w.Write([]byte("bad gateway"))
			})

			_, err := srv.GetCustomer(context.Background(), "42", "jwt")
			if !errors.Is(err, shared.ErrServiceUnavailable) {
				t.Errorf("expected ErrServiceUnavailable, got %v", err)
			}
		})

		t.Run("Transport Failure", func(t *testing.T) {
			srv := NewCleengService(shared.CleengConfig{BaseURL: "http://127.0.0.1:1"}, nil, nil)

			_, err := srv.GetCustomer(context.Background(), "42", "jwt")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
			var respErr *ResponseError
			if errors.As(err, &respErr) {
				t.Error("expected transport failure not to be a ResponseError")
			}
		})

		t.Run("Expired Context Stays Visible", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				<-r.Context().Done()
			})

			ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
			defer cancel()

			_, err := srv.RefreshToken(ctx, models.RefreshTokenPayload{RefreshToken: "refresh"})
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("expected DeadlineExceeded, got %v", err)
			}
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Errorf("expected ErrAPIRequest, got %v", err)
			}
		})
	})

	t.Run("Unwraps List Responses", func(t *testing.T) {
		srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/customers/7/subscriptions":
				writeEnvelope(w, http.StatusOK, nil, map[string]any{"items": []models.Subscription{{OfferID: "S1", Status: "active"}}})
			case "/customers/7/transactions":
				writeEnvelope(w, http.StatusOK, nil, map[string]any{"items": []models.Transaction{{TransactionID: "T1"}}})
			case "/customers/7/payment_details":
				writeEnvelope(w, http.StatusOK, nil, map[string]any{"paymentDetails": []models.PaymentDetails{{Active: true}}})
			case "/customers/7/consents":
				writeEnvelope(w, http.StatusOK, nil, map[string]any{"consents": []models.CustomerConsent{{Name: "terms", State: "accepted"}}})
			case "/publishers/123/consents":
				writeEnvelope(w, http.StatusOK, nil, map[string]any{"consents": []models.Consent{{Name: "terms", Required: true}}})
			default:
				t.Errorf("unexpected path %s", r.URL.Path)
				w.WriteHeader(http.StatusNotFound)
			}
		})
		ctx := context.Background()

		subs, err := srv.GetSubscriptions(ctx, "7", "jwt")
		if err != nil || len(subs) != 1 || subs[0].OfferID != "S1" {
			t.Errorf("subscriptions: %v %+v", err, subs)
		}

		txs, err := srv.GetTransactions(ctx, "7", "jwt")
		if err != nil || len(txs) != 1 || txs[0].TransactionID != "T1" {
			t.Errorf("transactions: %v %+v", err, txs)
		}

		payments, err := srv.GetPaymentDetails(ctx, "7", "jwt")
		if err != nil || len(payments) != 1 || !payments[0].Active {
			t.Errorf("payment details: %v %+v", err, payments)
		}

		consents, err := srv.GetCustomerConsents(ctx, "7", "jwt")
		if err != nil || len(consents) != 1 || !consents[0].Accepted() {
			t.Errorf("customer consents: %v %+v", err, consents)
		}

		pub, err := srv.GetPublisherConsents(ctx, "123")
		if err != nil || len(pub) != 1 || !pub[0].Required {
			t.Errorf("publisher consents: %v %+v", err, pub)
		}
	})

	t.Run("Mutations", func(t *testing.T) {
		t.Run("UpdateSubscription", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPatch || r.URL.Path != "/customers/7/subscriptions" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				var body map[string]string
				json.NewDecoder(r.Body).Decode(&body)
				if body["offerId"] != "S1" || body["status"] != "cancelled" {
					t.Errorf("unexpected body %v", body)
				}
				writeEnvelope(w, http.StatusOK, nil, map[string]any{})
			})

			err := srv.UpdateSubscription(context.Background(), models.UpdateSubscriptionPayload{
				CustomerID: "7", OfferID: "S1", Status: models.SubscriptionCancelled,
			}, "jwt")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})

		t.Run("UpdateCustomer Omits Empty Fields", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				var body map[string]any
				json.NewDecoder(r.Body).Decode(&body)
				if _, ok := body["email"]; ok {
					t.Error("expected empty email to be omitted")
				}
				if body["firstName"] != "Ada" {
					t.Errorf("expected firstName Ada, got %v", body["firstName"])
				}
				writeEnvelope(w, http.StatusOK, nil, models.Customer{ID: "7", FirstName: "Ada"})
			})

			customer, err := srv.UpdateCustomer(context.Background(), models.UpdateCustomerPayload{ID: "7", FirstName: "Ada"}, "jwt")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if customer.FirstName != "Ada" {
				t.Errorf("expected updated customer, got %+v", customer)
			}
		})

		t.Run("ResetPassword Reports Errors", func(t *testing.T) {
			srv := newTestCleeng(t, func(w http.ResponseWriter, r *http.Request) {
				if r.Method != http.MethodPut || r.URL.Path != "/customers/passwords" {
					t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
				}
				writeEnvelope(w, http.StatusBadRequest, []string{"Invalid param email"}, nil)
			})

			err := srv.ResetPassword(context.Background(), models.ResetPasswordPayload{CustomerEmail: "x"})
			var respErr *ResponseError
			if !errors.As(err, &respErr) {
				t.Fatalf("expected ResponseError, got %v", err)
			}
		})
	})
}
