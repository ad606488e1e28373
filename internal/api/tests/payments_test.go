package api_test

import (
	"net/http"
	"testing"

	"github.com/rongwang/condo-ledger/internal/api/testutils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagPatternsAndMonthlyPayments(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ana := createOwner(t, testCtx, "101")
	createOwner(t, testCtx, "102")
	march := createTag(t, testCtx, "Condo fee March", "2024-03")

	createTransaction(t, testCtx, map[string]interface{}{"description": "CONDO FEE 101", "ownerId": ana})
	createTransaction(t, testCtx, map[string]interface{}{"description": "CONDO FEE 101 second", "ownerId": ana, "amount": "50"})

	// Test case 1: An invalid regex is rejected by binding
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/tags/"+march,
		map[string]interface{}{"intent": "createPattern", "pattern": "(unclosed"},
		testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, testutils.DecodeJSON(t, w)["error"], "regex")

	// Test case 2: Applying to existing transactions tags each match once
	resp := postIntent(t, testCtx, "/tags/"+march, map[string]interface{}{
		"intent":          "createPattern",
		"pattern":         "condo fee",
		"applyToExisting": true,
	})
	applied := resp["applied"].(map[string]interface{})
	assert.Equal(t, float64(2), applied["matched"])
	assert.Equal(t, float64(2), applied["assigned"])
	patternID := resp["pattern"].(map[string]interface{})["id"].(string)

	detail := getJSON(t, testCtx, "/tags/"+march)
	assert.Len(t, detail["patterns"], 1)

	// Test case 3: Payment status per owner
	payments := getJSON(t, testCtx, "/payments?tagId="+march)
	owners := payments["owners"].([]interface{})
	require.Len(t, owners, 2)

	paid := owners[0].(map[string]interface{})
	assert.Equal(t, "paid", paid["status"])
	assert.Equal(t, float64(2), paid["paymentCount"])
	assert.True(t, decimal.RequireFromString(paid["amountPaid"].(string)).Equal(decimal.NewFromInt(150)))

	pending := owners[1].(map[string]interface{})
	assert.Equal(t, "pending", pending["status"])
	assert.Nil(t, pending["lastPaymentDate"])

	summary := payments["summary"].(map[string]interface{})
	assert.Equal(t, float64(1), summary["paid"])
	assert.Equal(t, float64(1), summary["pending"])

	// Test case 4: "all" selects every monthly tag
	payments = getJSON(t, testCtx, "/payments?tagId=all")
	assert.Len(t, payments["tags"], 1)

	// Test case 5: Toggle and delete the pattern
	resp = postIntent(t, testCtx, "/tags/"+march, map[string]interface{}{"intent": "togglePattern", "patternId": patternID})
	assert.Equal(t, false, resp["pattern"].(map[string]interface{})["isActive"])
	postIntent(t, testCtx, "/tags/"+march, map[string]interface{}{"intent": "deletePattern", "patternId": patternID})
	detail = getJSON(t, testCtx, "/tags/"+march)
	assert.Empty(t, detail["patterns"])
}

func TestMonthlyPaymentsRequiresTag(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	w := testutils.PerformRequest(testCtx.Router, http.MethodGet, "/payments", nil, testutils.AuthHeaders(testCtx.UserJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/payments?tagId=missing", nil,
		testutils.AuthHeaders(testCtx.UserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTagUpdateAndDelete(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	tagID := createTag(t, testCtx, "Water", "")
	createTag(t, testCtx, "Power", "")

	resp := postIntent(t, testCtx, "/tags/"+tagID, map[string]interface{}{
		"intent": "update",
		"name":   "Water bill",
		"color":  "#1e90ff",
	})
	assert.Equal(t, "Water bill", resp["tag"].(map[string]interface{})["name"])

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/tags/"+tagID,
		map[string]interface{}{"intent": "update", "name": "Power"}, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusConflict, w.Code)

	w = testutils.PerformRequest(testCtx.Router, http.MethodPost, "/tags/"+tagID,
		map[string]interface{}{"intent": "update", "name": "Water", "color": "blue"}, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	postIntent(t, testCtx, "/tags/"+tagID, map[string]interface{}{"intent": "delete"})
	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/tags/"+tagID, nil, testutils.AuthHeaders(testCtx.UserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
