package logfields

import (
	"errors"
	"log/slog"
	"testing"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"Document", KeyDocument, "usb/index", Document("usb/index")},
		{"Href", KeyHref, "/astutus/usb", Href("/astutus/usb")},
		{"OriginalHref", KeyOriginalHref, "../usb.html", OriginalHref("../usb.html")},
		{"ResolvedHref", KeyResolvedHref, "http://x/usb.html", ResolvedHref("http://x/usb.html")},
		{"Rule", KeyRule, "raspi/dyn", Rule("raspi/dyn")},
		{"Selector", KeySelector, "div a", Selector("div a")},
		{"Mode", KeyMode, "dynamic", Mode("dynamic")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "index.html", File("index.html")},
		{"URL", KeyURL, "http://example", URL("http://example")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"RequestID", KeyRequestID, "rid", RequestID("rid")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if a := Count(3); a.Key != KeyCount || a.Value.Int64() != 3 {
		t.Fatalf("Count: got %v=%v", a.Key, a.Value)
	}
	if a := Status(404); a.Key != KeyStatus || a.Value.Int64() != 404 {
		t.Fatalf("Status: got %v=%v", a.Key, a.Value)
	}
	if a := DurationMS(1.5); a.Key != KeyDurationMS || a.Value.Float64() != 1.5 {
		t.Fatalf("DurationMS: got %v=%v", a.Key, a.Value)
	}
}

func TestErrorHelper(t *testing.T) {
	if got := Error(nil).Value.String(); got != "" {
		t.Fatalf("nil error should render empty, got %q", got)
	}
	if got := Error(errors.New("boom")).Value.String(); got != "boom" {
		t.Fatalf("expected boom, got %q", got)
	}
}
