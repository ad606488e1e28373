package api_test

import (
	"net/http"
	"testing"

	"github.com/rongwang/condo-ledger/internal/api/testutils"
	"github.com/stretchr/testify/require"
)

// postIntent sends a JSON intent as the admin and returns the decoded body
func postIntent(t *testing.T, testCtx *testutils.TestContext, path string, body map[string]interface{}) map[string]interface{} {
	t.Helper()
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, path, body, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := testutils.DecodeJSON(t, w)
	require.Equal(t, true, resp["success"], w.Body.String())
	return resp
}

func createOwner(t *testing.T, testCtx *testutils.TestContext, apartment string) string {
	t.Helper()
	resp := postIntent(t, testCtx, "/owners", map[string]interface{}{
		"intent":      "create",
		"name":        "Owner " + apartment,
		"apartmentId": apartment,
	})
	return resp["owner"].(map[string]interface{})["id"].(string)
}

func createTag(t *testing.T, testCtx *testutils.TestContext, name, monthYear string) string {
	t.Helper()
	resp := postIntent(t, testCtx, "/tags", map[string]interface{}{
		"intent":    "create",
		"name":      name,
		"monthYear": monthYear,
	})
	return resp["tag"].(map[string]interface{})["id"].(string)
}

func createTransaction(t *testing.T, testCtx *testutils.TestContext, fields map[string]interface{}) string {
	t.Helper()
	body := map[string]interface{}{
		"intent": "create",
		"type":   "credit",
		"amount": "100.00",
		"date":   "2024-03-05",
	}
	for k, v := range fields {
		body[k] = v
	}
	resp := postIntent(t, testCtx, "/transactions", body)
	return resp["transaction"].(map[string]interface{})["id"].(string)
}

func getJSON(t *testing.T, testCtx *testutils.TestContext, path string) map[string]interface{} {
	t.Helper()
	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, path, nil, testutils.AuthHeaders(testCtx.UserJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return testutils.DecodeJSON(t, w)
}
