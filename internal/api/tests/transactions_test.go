package api_test

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/rongwang/condo-ledger/internal/api/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestListTransactionsFilters(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := createOwner(t, testCtx, "101")
	tagID := createTag(t, testCtx, "Maintenance", "")

	createTransaction(t, testCtx, map[string]interface{}{
		"description": "APT 101 fee",
		"ownerId":     ownerID,
		"tagIds":      []string{tagID},
	})
	createTransaction(t, testCtx, map[string]interface{}{
		"type":        "debit",
		"amount":      "40",
		"description": "Plumber",
		"date":        "2024-04-01",
	})

	// Test case 1: Unfiltered
	resp := getJSON(t, testCtx, "/transactions")
	assert.Equal(t, float64(2), resp["total"])
	assert.Equal(t, float64(1), resp["pageCount"])
	totals := resp["totals"].(map[string]interface{})
	assert.Equal(t, "100", totals["credit"])
	assert.Equal(t, "40", totals["debit"])

	// Test case 2: Without owner
	resp = getJSON(t, testCtx, "/transactions?ownerId=none")
	assert.Equal(t, float64(1), resp["total"])
	assert.Equal(t, "noOwner=true", resp["query"])

	// Test case 3: By tag
	resp = getJSON(t, testCtx, "/transactions?tagId="+tagID)
	assert.Equal(t, float64(1), resp["total"])

	// Test case 4: Inclusive date range
	resp = getJSON(t, testCtx, "/transactions?startDate=2024-03-05&endDate=2024-03-05")
	assert.Equal(t, float64(1), resp["total"])

	// Test case 5: Search and type
	resp = getJSON(t, testCtx, "/transactions?search=plumb&type=debit")
	assert.Equal(t, float64(1), resp["total"])
	resp = getJSON(t, testCtx, "/transactions?search=plumb&type=credit")
	assert.Equal(t, float64(0), resp["total"])
}

func TestTransactionIntents(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	ownerID := createOwner(t, testCtx, "101")
	tagID := createTag(t, testCtx, "Fee", "2024-03")
	txID := createTransaction(t, testCtx, map[string]interface{}{"description": "TRF 101"})
	path := "/transactions/" + txID

	postIntent(t, testCtx, path, map[string]interface{}{"intent": "updateDescription", "description": "Condo fee 101"})
	postIntent(t, testCtx, path, map[string]interface{}{"intent": "assignOwner", "ownerId": ownerID})
	postIntent(t, testCtx, path, map[string]interface{}{"intent": "addTag", "tagId": tagID})

	tx := getJSON(t, testCtx, path)
	assert.Equal(t, "Condo fee 101", tx["description"])
	assert.Equal(t, "TRF 101", tx["bankDescription"])
	assert.Equal(t, ownerID, tx["ownerId"])
	assert.Len(t, tx["tags"], 1)

	postIntent(t, testCtx, path, map[string]interface{}{"intent": "removeTag", "tagId": tagID})
	postIntent(t, testCtx, path, map[string]interface{}{"intent": "assignOwner", "ownerId": ""})
	tx = getJSON(t, testCtx, path)
	assert.Nil(t, tx["ownerId"])
	assert.Empty(t, tx["tags"])

	// Unknown owner
	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, path,
		map[string]interface{}{"intent": "assignOwner", "ownerId": "missing"}, testutils.AuthHeaders(testCtx.AdminJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Duplicates leave the listing
	postIntent(t, testCtx, path, map[string]interface{}{"intent": "markDuplicate", "duplicate": true})
	resp := getJSON(t, testCtx, "/transactions")
	assert.Equal(t, float64(0), resp["total"])
}

func TestCreateTransactionValidation(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	cases := []map[string]interface{}{
		{"intent": "create", "type": "transfer", "amount": "10", "date": "2024-03-05"},
		{"intent": "create", "type": "credit", "amount": "-10", "date": "2024-03-05"},
		{"intent": "create", "type": "credit", "amount": "10", "date": "05/03/2024"},
	}
	for _, body := range cases {
		w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/transactions", body,
			testutils.AuthHeaders(testCtx.AdminJWT))
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Equal(t, false, testutils.DecodeJSON(t, w)["success"])
	}
}

func TestAutoAssignOwnerIntent(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	txID := createTransaction(t, testCtx, map[string]interface{}{"description": "DEPOSIT APT 202"})
	ownerID := createOwner(t, testCtx, "202")
	postIntent(t, testCtx, "/owners/"+ownerID, map[string]interface{}{
		"intent":  "createPattern",
		"pattern": `apt\s*202`,
	})

	resp := postIntent(t, testCtx, "/transactions/"+txID, map[string]interface{}{"intent": "autoAssignOwner"})
	assert.Equal(t, ownerID, resp["ownerId"])
	assert.NotNil(t, resp["tagIds"])

	w := testutils.PerformRequest(testCtx.Router, http.MethodPost, "/transactions/missing",
		map[string]interface{}{"intent": "autoAssignOwner"}, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code)
	failed := testutils.DecodeJSON(t, w)
	assert.Equal(t, false, failed["success"])
	assert.Equal(t, "transaction not found", failed["error"])
	assert.Empty(t, failed["tagIds"])
}

func TestImportAndExportTransactions(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	statement := []byte("date,type,amount,description\n" +
		"2024-03-01,credit,100.00,TRF APT 101\n" +
		"2024-03-02,debit,12.50,BANK CHARGE\n" +
		"2024-03-02,debit,12.50,BANK CHARGE\n")

	w := testutils.PerformUpload(testCtx.Router, "/transactions", map[string]string{"intent": "import"},
		"statement.csv", statement, testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	result := testutils.DecodeJSON(t, w)["result"].(map[string]interface{})
	assert.Equal(t, float64(2), result["imported"])
	assert.Equal(t, float64(1), result["duplicates"])

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/transactions/export?type=debit", nil,
		testutils.AuthHeaders(testCtx.UserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")

	book, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	rows, err := book.GetRows("Transactions")
	require.NoError(t, err)
	require.Len(t, rows, 2, "heading plus the single debit")
	assert.Equal(t, "BANK CHARGE", rows[1][3])
}

func TestTransactionAttachments(t *testing.T) {
	testCtx := testutils.SetupTestContext(t)
	defer testutils.CleanupTestContext(testCtx)

	txID := createTransaction(t, testCtx, map[string]interface{}{"description": "Receipt"})
	path := "/transactions/" + txID

	w := testutils.PerformUpload(testCtx.Router, path, map[string]string{"intent": "uploadAttachment"},
		"receipt.txt", []byte("paid in full"), testutils.AuthHeaders(testCtx.AdminJWT))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	attachmentID := testutils.DecodeJSON(t, w)["attachment"].(map[string]interface{})["id"].(string)

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/attachments/"+attachmentID, nil,
		testutils.AuthHeaders(testCtx.UserJWT))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "paid in full", w.Body.String())
	assert.Contains(t, w.Header().Get("Content-Disposition"), "receipt.txt")

	postIntent(t, testCtx, path, map[string]interface{}{"intent": "deleteAttachment", "attachmentId": attachmentID})

	w = testutils.PerformRequest(testCtx.Router, http.MethodGet, "/attachments/"+attachmentID, nil,
		testutils.AuthHeaders(testCtx.UserJWT))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
