package pesu

import (
	"bytes"
	"embed"
	"testing"

	"pesuacademy/internal/components/telemetry"

	"github.com/PuerkitoBio/goquery"
)

//go:embed testdata/*.html
var fixtures embed.FS

func fixture(t testing.TB, name string) []byte {
	t.Helper()
	contents, err := fixtures.ReadFile("testdata/" + name)
	if err != nil {
		t.Fatal(err)
	}
	return contents
}

func fixtureDoc(t testing.TB, name string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(fixture(t, name)))
	if err != nil {
		t.Fatal(err)
	}
	return doc
}

// newTestSession creates a session that is never logged in, it is only used
// to resolve urls in parser tests.
func newTestSession(t testing.TB, tel telemetry.API) *Session {
	t.Helper()
	session, err := NewSession(SessionOptions{
		BaseURL:   DefaultBaseURL,
		Telemetry: tel,
	})
	if err != nil {
		t.Fatal(err)
	}
	return session
}

func ptr[T any](v T) *T {
	return &v
}
