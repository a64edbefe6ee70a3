package testapp

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fetchDoc(t *testing.T, resp *http.Response) *goquery.Document {
	t.Helper()
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	require.NoError(t, err)
	return doc
}

func TestFormPage(t *testing.T) {
	srv := NewServer(t)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	doc := fetchDoc(t, resp)

	assert.Equal(t, "Shekel Converter", doc.Find("title").Text())
	assert.Equal(t, 1, doc.Find(`input[name="shekels"]`).Length())
	assert.Equal(t, 1, doc.Find(`button[type="submit"]`).Length())

	var values []string
	doc.Find(`select[name="currency"] option`).Each(func(_ int, s *goquery.Selection) {
		v, _ := s.Attr("value")
		values = append(values, v)
	})
	assert.Equal(t, []string{"usd", "eur", "gbp"}, values)

	_, required := doc.Find(`input[name="shekels"]`).Attr("required")
	assert.False(t, required, "the amount input is optional by default")
}

func TestFormPageOptions(t *testing.T) {
	srv := NewServer(t, WithCurrencies("usd", "jpy"), WithRequiredAmount(), WithoutSubmitButton())

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	doc := fetchDoc(t, resp)

	assert.Equal(t, 2, doc.Find(`select[name="currency"] option`).Length())
	assert.Equal(t, 0, doc.Find(`button[type="submit"]`).Length())
	_, required := doc.Find(`input[name="shekels"]`).Attr("required")
	assert.True(t, required)
}

func TestConvertEndpoint(t *testing.T) {
	srv := NewServer(t)

	cases := []struct {
		shekels, currency, want string
	}{
		{"100", "usd", "₪100 = $27.00"},
		{"100", "eur", "₪100 = €25.00"},
		{"100", "gbp", "₪100 = £21.00"},
		{"50", "usd", "₪50 = $13.50"},
		{"200", "eur", "₪200 = €50.00"},
		{"150", "gbp", "₪150 = £31.50"},
		{"", "usd", "₪NaN = $NaN"},
		{"100", "jpy", "₪100 = ?0.00"},
	}
	for _, tc := range cases {
		t.Run(tc.shekels+"-"+tc.currency, func(t *testing.T) {
			resp, err := http.PostForm(srv.URL+"/convert", url.Values{
				"shekels":  {tc.shekels},
				"currency": {tc.currency},
			})
			require.NoError(t, err)
			doc := fetchDoc(t, resp)

			assert.Equal(t, tc.want, strings.TrimSpace(doc.Find("#result").Text()))
			assert.Equal(t, 1, doc.Find("#convert-again").Length())
		})
	}
}

func TestConvert(t *testing.T) {
	app := New(WithRates(map[string]float64{"usd": 0.5}))

	amount, converted, symbol := app.Convert(" 12.5 ", "usd")
	assert.Equal(t, "12.5", amount)
	assert.Equal(t, "6.25", converted)
	assert.Equal(t, "$", symbol)

	_, converted, _ = app.Convert("12", "eur")
	assert.Equal(t, "0.00", converted, "currencies without a rate convert at zero")
}

func TestResultDelay(t *testing.T) {
	srv := NewServer(t, WithResultDelay(150*time.Millisecond))

	start := time.Now()
	resp, err := http.PostForm(srv.URL+"/convert", url.Values{"shekels": {"1"}, "currency": {"usd"}})
	require.NoError(t, err)
	_, _ = io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- New().Serve(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 5*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancellation")
	}
}
