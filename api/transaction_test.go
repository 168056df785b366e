package api

import (
	"errors"
	"net/http"
	"testing"

	"fintrack/config"
	"fintrack/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func createdID(t *testing.T, s *testServer, path, body, token string) string {
	t.Helper()
	w := s.do("POST", path, body, token)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode(t, w)["data"].(map[string]interface{})["id"].(string)
}

func accountBalance(t *testing.T, s *testServer, id, token string) string {
	t.Helper()
	w := s.do("GET", "/accounts/"+id, "", token)
	require.Equal(t, 200, w.Code, w.Body.String())
	return decode(t, w)["data"].(map[string]interface{})["balance"].(string)
}

func TestTransactionHandler_CreateAdjustsBalance(t *testing.T) {
	s := newTestServer(t, newTestStore(t), config.ConsistencyAtomic)
	token := s.signUp(t, "anna@example.com")

	acc := createdID(t, s, "/accounts", `{"name":"Konto","balance":"1000","currency":"PLN","type":"bank"}`, token)
	cat := createdID(t, s, "/categories", `{"name":"Jedzenie","type":"expense","color":"#ef4444","icon":"ShoppingCart"}`, token)

	txID := createdID(t, s, "/transactions",
		`{"type":"expense","name":"Zakupy","amount":"150","date":"2024-01-15","category":"`+cat+`","account":"`+acc+`"}`, token)
	assert.NotEmpty(t, txID)
	assert.Equal(t, "850", accountBalance(t, s, acc, token))

	w := s.do("GET", "/transactions?type=expense&from=2024-01-01&to=2024-01-31", "", token)
	require.Equal(t, 200, w.Code)
	list := decode(t, w)["data"].([]interface{})
	require.Len(t, list, 1)
	assert.Equal(t, "PLN", list[0].(map[string]interface{})["currency"])

	// 默认不对称：编辑不回写余额
	w = s.do("PUT", "/transactions/"+txID, `{"amount":"200"}`, token)
	assert.Equal(t, 200, w.Code)
	assert.Equal(t, "850", accountBalance(t, s, acc, token))

	// 仍被引用的账户不能删除
	w = s.do("DELETE", "/accounts/"+acc, "", token)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do("DELETE", "/transactions/"+txID, "", token)
	assert.Equal(t, 200, w.Code)
	w = s.do("DELETE", "/accounts/"+acc, "", token)
	assert.Equal(t, 200, w.Code)
}

func TestTransactionHandler_Validation(t *testing.T) {
	s := newTestServer(t, newTestStore(t), config.ConsistencyAtomic)
	token := s.signUp(t, "anna@example.com")
	acc := createdID(t, s, "/accounts", `{"name":"Konto","balance":"0","currency":"EUR","type":"cash"}`, token)

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad date", `{"type":"income","name":"X","amount":"1","date":"15/01/2024","account":"` + acc + `"}`, 400},
		{"negative amount", `{"type":"income","name":"X","amount":"-1","date":"2024-01-15","account":"` + acc + `"}`, 400},
		{"sub-cent amount", `{"type":"income","name":"X","amount":"0.005","date":"2024-01-15","account":"` + acc + `"}`, 400},
		{"currency mismatch", `{"type":"income","name":"X","amount":"1","currency":"PLN","date":"2024-01-15","account":"` + acc + `"}`, 400},
		{"unknown account", `{"type":"income","name":"X","amount":"1","date":"2024-01-15","account":"missing"}`, 400},
		{"malformed json", `{"type":`, 400},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do("POST", "/transactions", tt.body, token)
			assert.Equal(t, tt.code, w.Code, w.Body.String())
		})
	}

	w := s.do("GET", "/accounts/missing", "", token)
	assert.Equal(t, 404, w.Code)
	w = s.do("POST", "/accounts", `{"name":"X","balance":"0","currency":"GBP","type":"bank"}`, token)
	assert.Equal(t, 400, w.Code)
	w = s.do("POST", "/accounts", `{"name":"X","balance":"10.001","currency":"PLN","type":"bank"}`, token)
	assert.Equal(t, 400, w.Code)
}

func TestTransactionHandler_OwnerScoped(t *testing.T) {
	s := newTestServer(t, newTestStore(t), config.ConsistencyAtomic)
	anna := s.signUp(t, "anna@example.com")
	bob := s.signUp(t, "bob@example.com")

	acc := createdID(t, s, "/accounts", `{"name":"Konto","balance":"10","currency":"PLN","type":"bank"}`, anna)
	w := s.do("GET", "/accounts/"+acc, "", bob)
	assert.Equal(t, 404, w.Code)

	w = s.do("GET", "/accounts", "", bob)
	require.Equal(t, 200, w.Code)
	assert.Empty(t, decode(t, w)["data"])
}

func TestTransactionHandler_BalanceNotUpdated(t *testing.T) {
	store := newTestStore(t)
	s := newTestServer(t, store, config.ConsistencySequential)
	token := s.signUp(t, "anna@example.com")
	acc := createdID(t, s, "/accounts", `{"name":"Konto","balance":"1000","currency":"PLN","type":"bank"}`, token)

	db := store.DB()
	const name = "test:fail_account_updates"
	require.NoError(t, db.Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if tx.Statement.Table == "accounts" {
			_ = tx.AddError(errors.New("injected store failure"))
		}
	}))
	w := s.do("POST", "/transactions", `{"type":"expense","name":"Zakupy","amount":"150","date":"2024-01-15","account":"`+acc+`"}`, token)
	require.NoError(t, db.Callback().Update().Remove(name))

	assert.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Equal(t, OutcomeBalanceNotUpdated, data["outcome"])
	assert.Equal(t, acc, data["account_id"])
	assert.NotEmpty(t, data["transaction_id"])
	assert.Equal(t, "1000", accountBalance(t, s, acc, token))
}

func TestRespondError_RemoteUnavailable(t *testing.T) {
	mock, store := setupMockDB(t)
	mock.ExpectQuery("SELECT .* FROM `accounts`").WillReturnError(errors.New("connection refused"))

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(setUserIDMiddleware("u-1"))
	router.GET("/accounts", NewAccountHandler(store, nil).List)

	w := (&testServer{router: router}).do("GET", "/accounts", "", "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, float64(503), decode(t, w)["code"])
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestRespondError_Mapping(t *testing.T) {
	gin.SetMode(gin.TestMode)
	tests := []struct {
		err  error
		code int
	}{
		{repository.ErrNotFound, 404},
		{repository.ErrSchemaMismatch, 500},
		{repository.ErrVersionConflict, 409},
		{repository.ErrAccountInUse, 409},
		{repository.ErrRemoteUnavailable, 503},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		router := gin.New()
		router.GET("/", func(c *gin.Context) { RespondError(c, tt.err) })
		w := (&testServer{router: router}).do("GET", "/", "", "")
		assert.Equal(t, tt.code, w.Code, tt.err.Error())
	}
}

func setUserIDMiddleware(id string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("userID", id)
		c.Next()
	}
}
