package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/kairostudio/backoffice/internal/config"
	"github.com/kairostudio/backoffice/internal/db"
	"github.com/kairostudio/backoffice/internal/server"
)

// testApp boots the full application on an in-memory database and returns
// the test server plus a cookie-carrying client.
func testApp(t *testing.T) (*httptest.Server, *http.Client) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	for _, m := range db.AllModels() {
		if err := conn.AutoMigrate(m); err != nil {
			t.Fatalf("automigrate %T: %v", m, err)
		}
	}
	cfg := config.Config{StorageDir: t.TempDir()}
	app, err := server.New(conn, cfg)
	if err != nil {
		t.Fatalf("app: %v", err)
	}
	srv := httptest.NewServer(app.Router())
	t.Cleanup(srv.Close)

	jar, _ := cookiejar.New(nil)
	return srv, &http.Client{Jar: jar}
}

func postJSON(t *testing.T, c *http.Client, url string, body string) *http.Response {
	t.Helper()
	resp, err := c.Post(url, "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	return resp
}

func decode(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// bootstrap runs /setup, leaving the admin session in the client's jar.
func bootstrap(t *testing.T, srv *httptest.Server, c *http.Client) {
	t.Helper()
	resp := postJSON(t, c, srv.URL+"/setup", `{
		"company_name": "Atelier Teranga",
		"city": "Dakar",
		"email": "admin@teranga.sn",
		"password": "secret123",
		"first_name": "Awa"
	}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("setup status = %d, body %s", resp.StatusCode, body)
	}
}

func TestSetupRunsOnce(t *testing.T) {
	srv, c := testApp(t)
	bootstrap(t, srv, c)

	resp := postJSON(t, c, srv.URL+"/setup", `{"company_name":"Autre","email":"x@y.sn","password":"p"}`)
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("second setup status = %d, want 409", resp.StatusCode)
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	srv, _ := testApp(t)
	resp, err := http.Get(srv.URL + "/clients")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", resp.StatusCode)
	}
}

func TestClientCRUD(t *testing.T) {
	srv, c := testApp(t)
	bootstrap(t, srv, c)

	resp := postJSON(t, c, srv.URL+"/clients", `{"name":"Hôtel Baobab","email":"contact@baobab.sn","status":"active"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d, want 201", resp.StatusCode)
	}
	var created struct {
		ID   uint   `json:"ID"`
		Name string `json:"Name"`
	}
	decode(t, resp, &created)
	if created.ID == 0 || created.Name != "Hôtel Baobab" {
		t.Fatalf("created = %+v", created)
	}

	// invalid status rejected
	resp = postJSON(t, c, srv.URL+"/clients", `{"name":"X","status":"nope"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status = %d, want 400", resp.StatusCode)
	}

	listResp, err := c.Get(srv.URL + "/clients")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, listResp, &list)
	if list.Total != 1 {
		t.Errorf("total = %d, want 1", list.Total)
	}
}

func quotePayload(clientID uint) string {
	return fmt.Sprintf(`{
		"client_id": %d,
		"discount_percent": "10",
		"sections": [
			{"title": "Gros œuvre", "lines": [
				{"designation": "Cloison placo", "quantity": "10", "unit": "m²", "unit_price": "100", "vat_rate": "10"}
			]},
			{"title": "Finitions", "lines": [
				{"designation": "Peinture", "quantity": "1", "unit_price": "500", "vat_rate": "20"}
			]}
		]
	}`, clientID)
}

func createClientAndQuote(t *testing.T, srv *httptest.Server, c *http.Client) (clientID, quoteID uint) {
	t.Helper()
	resp := postJSON(t, c, srv.URL+"/clients", `{"name":"Hôtel Baobab","status":"active"}`)
	var client struct {
		ID uint `json:"ID"`
	}
	decode(t, resp, &client)

	resp = postJSON(t, c, srv.URL+"/quotes", quotePayload(client.ID))
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("quote status = %d, body %s", resp.StatusCode, body)
	}
	var quote struct {
		ID       uint   `json:"ID"`
		TotalTTC string `json:"TotalTTC"`
	}
	decode(t, resp, &quote)
	if quote.TotalTTC != "1530" {
		t.Fatalf("quote TTC = %s, want 1530", quote.TotalTTC)
	}
	return client.ID, quote.ID
}

func TestQuoteLifecycleOverHTTP(t *testing.T) {
	srv, c := testApp(t)
	bootstrap(t, srv, c)
	_, quoteID := createClientAndQuote(t, srv, c)

	// accept before send is an invalid transition
	resp := postJSON(t, c, fmt.Sprintf("%s/quotes/accept?id=%d", srv.URL, quoteID), "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("accept draft status = %d, want 422", resp.StatusCode)
	}

	for _, step := range []string{"send", "accept"} {
		resp = postJSON(t, c, fmt.Sprintf("%s/quotes/%s?id=%d", srv.URL, step, quoteID), "")
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s status = %d, want 200", step, resp.StatusCode)
		}
	}

	// conversion creates a linked invoice with the same totals
	resp = postJSON(t, c, fmt.Sprintf("%s/quotes/convert?id=%d", srv.URL, quoteID), `{"type":"final"}`)
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("convert status = %d, body %s", resp.StatusCode, body)
	}
	var invoice struct {
		ID       uint   `json:"ID"`
		TotalTTC string `json:"TotalTTC"`
		Number   string `json:"Number"`
	}
	decode(t, resp, &invoice)
	if invoice.TotalTTC != "1530" {
		t.Errorf("invoice TTC = %s, want 1530", invoice.TotalTTC)
	}
	if !strings.HasPrefix(invoice.Number, "FAC-") {
		t.Errorf("invoice number = %q, want FAC- prefix", invoice.Number)
	}
}

func TestQuotePDFEndpoint(t *testing.T) {
	srv, c := testApp(t)
	bootstrap(t, srv, c)
	_, quoteID := createClientAndQuote(t, srv, c)

	resp, err := c.Get(fmt.Sprintf("%s/quotes/pdf?id=%d", srv.URL, quoteID))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", ct)
	}
	buf, _ := io.ReadAll(resp.Body)
	if !bytes.HasPrefix(buf, []byte("%PDF")) {
		t.Errorf("body does not start with %%PDF")
	}
}

func TestInvoicePaymentsOverHTTP(t *testing.T) {
	srv, c := testApp(t)
	bootstrap(t, srv, c)

	resp := postJSON(t, c, srv.URL+"/clients", `{"name":"Hôtel Baobab","status":"active"}`)
	var client struct {
		ID uint `json:"ID"`
	}
	decode(t, resp, &client)

	resp = postJSON(t, c, srv.URL+"/invoices", fmt.Sprintf(`{
		"client_id": %d,
		"lines": [{"designation": "Honoraires", "quantity": "1", "unit_price": "1000"}]
	}`, client.ID))
	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		t.Fatalf("invoice status = %d, body %s", resp.StatusCode, body)
	}
	var invoice struct {
		ID uint `json:"ID"`
	}
	decode(t, resp, &invoice)

	// draft invoices are not payable
	resp = postJSON(t, c, fmt.Sprintf("%s/invoices/payments?id=%d", srv.URL, invoice.ID), `{"amount":"400"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("payment on draft status = %d, want 422", resp.StatusCode)
	}

	resp = postJSON(t, c, fmt.Sprintf("%s/invoices/send?id=%d", srv.URL, invoice.ID), "")
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("send status = %d", resp.StatusCode)
	}

	resp = postJSON(t, c, fmt.Sprintf("%s/invoices/payments?id=%d", srv.URL, invoice.ID), `{"amount":"400","method":"transfer"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("payment status = %d, want 201", resp.StatusCode)
	}

	// 700 would overpay the remaining 600
	resp = postJSON(t, c, fmt.Sprintf("%s/invoices/payments?id=%d", srv.URL, invoice.ID), `{"amount":"700","method":"transfer"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("overpayment status = %d, want 422", resp.StatusCode)
	}

	listResp, err := c.Get(fmt.Sprintf("%s/invoices/payments?id=%d", srv.URL, invoice.ID))
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Items []json.RawMessage `json:"items"`
	}
	decode(t, listResp, &list)
	if len(list.Items) != 1 {
		t.Errorf("payments = %d, want 1", len(list.Items))
	}
}

func TestSignupOpensIsolatedTenant(t *testing.T) {
	srv, first := testApp(t)
	bootstrap(t, srv, first)
	resp := postJSON(t, first, srv.URL+"/clients", `{"name":"Hôtel Baobab","status":"active"}`)
	resp.Body.Close()

	jar, _ := cookiejar.New(nil)
	second := &http.Client{Jar: jar}
	resp = postJSON(t, second, srv.URL+"/signup", `{
		"company_name": "Studio Sahel",
		"email": "contact@sahel.sn",
		"password": "secret456"
	}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d, want 201", resp.StatusCode)
	}

	// duplicate email rejected
	resp = postJSON(t, second, srv.URL+"/signup", `{"company_name":"X","email":"contact@sahel.sn","password":"p"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("duplicate signup status = %d, want 409", resp.StatusCode)
	}

	// the new tenant sees none of the first company's clients
	listResp, err := second.Get(srv.URL + "/clients")
	if err != nil {
		t.Fatal(err)
	}
	var list struct {
		Total int64 `json:"total"`
	}
	decode(t, listResp, &list)
	if list.Total != 0 {
		t.Errorf("new tenant sees %d clients, want 0", list.Total)
	}
}

func TestPortalShareLink(t *testing.T) {
	srv, c := testApp(t)
	bootstrap(t, srv, c)
	_, quoteID := createClientAndQuote(t, srv, c)

	resp := postJSON(t, c, fmt.Sprintf("%s/quotes/share?id=%d", srv.URL, quoteID), "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("share status = %d", resp.StatusCode)
	}
	var share struct {
		Token string `json:"token"`
	}
	decode(t, resp, &share)

	// the portal works without any session
	anon := &http.Client{}
	portalResp, err := anon.Get(srv.URL + "/portal/" + share.Token)
	if err != nil {
		t.Fatal(err)
	}
	defer portalResp.Body.Close()
	if portalResp.StatusCode != http.StatusOK {
		t.Fatalf("portal status = %d, want 200", portalResp.StatusCode)
	}
	var payload struct {
		Kind string `json:"kind"`
	}
	if err := json.NewDecoder(portalResp.Body).Decode(&payload); err != nil {
		t.Fatal(err)
	}
	if payload.Kind != "quote" {
		t.Errorf("kind = %q, want quote", payload.Kind)
	}

	// tampered token rejected
	bad, err := anon.Get(srv.URL + "/portal/" + share.Token + "x")
	if err != nil {
		t.Fatal(err)
	}
	bad.Body.Close()
	if bad.StatusCode != http.StatusNotFound {
		t.Errorf("tampered token status = %d, want 404", bad.StatusCode)
	}
}
