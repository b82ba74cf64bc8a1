package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eventup/api/internal/model"
	"github.com/eventup/api/internal/service"
)

func newProfileRouter(svc ProfileService, user *model.User) *gin.Engine {
	h := NewProfileHandler(svc, nil)
	r := gin.New()
	r.GET("/users/me", as(user), h.GetMe)
	r.PUT("/users/me", as(user), h.UpdateMe)
	r.GET("/users/ctv/cv", as(user), h.GetCV)
	r.PUT("/users/ctv/cv", as(user), h.UpsertCV)
	r.GET("/users/btc/:id/public", h.PublicBTC)
	return r
}

func TestUpdateMe_RoutesFieldsByRole(t *testing.T) {
	body := map[string]interface{}{
		"phone":      "0901234567",
		"address":    "District 1",
		"fullName":   "Lan Nguyen",
		"agencyName": "Sao Viet Events",
	}

	t.Run("collaborator", func(t *testing.T) {
		svc := &mockProfileService{
			updateMeFunc: func(_ context.Context, _ string, req service.UpdateMeRequest) (*service.Me, error) {
				require.NotNil(t, req.Phone)
				require.NotNil(t, req.CV)
				assert.Nil(t, req.BTC)
				assert.Equal(t, "Lan Nguyen", *req.CV.FullName)
				assert.Equal(t, "District 1", *req.CV.Address)
				return &service.Me{}, nil
			},
		}
		rr := serve(newProfileRouter(svc, ctvUser()), jsonRequest(http.MethodPut, "/users/me", body))
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("organizer", func(t *testing.T) {
		svc := &mockProfileService{
			updateMeFunc: func(_ context.Context, _ string, req service.UpdateMeRequest) (*service.Me, error) {
				require.NotNil(t, req.BTC)
				assert.Nil(t, req.CV)
				assert.Equal(t, "Sao Viet Events", *req.BTC.AgencyName)
				assert.Equal(t, "District 1", *req.BTC.Address)
				return &service.Me{}, nil
			},
		}
		rr := serve(newProfileRouter(svc, btcUser()), jsonRequest(http.MethodPut, "/users/me", body))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestUpsertCV_ConvertsGender(t *testing.T) {
	rr := serve(newProfileRouter(&mockProfileService{}, ctvUser()), jsonRequest(http.MethodPut, "/users/ctv/cv", map[string]interface{}{
		"gender": "robot",
	}))
	require.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, []string{"gender"}, fieldNames(decodeProblem(t, rr.Body)))

	in := (&CVRequest{Gender: stringPtr("MALE")}).input()
	require.NotNil(t, in.Gender)
	assert.Equal(t, model.GenderMale, *in.Gender)
}

func TestGetCV_Missing(t *testing.T) {
	rr := serve(newProfileRouter(&mockProfileService{}, ctvUser()), jsonRequest(http.MethodGet, "/users/ctv/cv", nil))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestPublicBTC(t *testing.T) {
	svc := &mockProfileService{
		publicBTC: func(_ context.Context, userID string) (*service.PublicBTCProfile, error) {
			assert.Equal(t, "user:btc", userID)
			return &service.PublicBTCProfile{}, nil
		},
	}

	rr := serve(newProfileRouter(svc, nil), jsonRequest(http.MethodGet, "/users/btc/user:btc/public", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
}

func stringPtr(s string) *string {
	return &s
}
