package address

import (
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

const knownPayload = "qpauqsvk7yf9unexwmxsnmg547mhyga37csh0kj53q6xxgl24ydxjsgzthw5j"

// charset is [a-z0-9] minus the forbidden bech32 characters.
const charset = "acdefghjklmnpqrstuvwxyz023456789"

func randomPayload(r *rand.Rand, n int) string {
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(charset[r.Intn(len(charset))])
	}
	return b.String()
}

func TestValidate_KnownMainnetAddress(t *testing.T) {
	addr := "kaspa:" + knownPayload
	res := Validate(addr)
	if !res.Valid {
		t.Fatalf("expected valid, got error %q", res.Error)
	}
	if res.Network != "mainnet" {
		t.Errorf("network = %s, want mainnet", res.Network)
	}
	if res.Prefix != "kaspa" {
		t.Errorf("prefix = %s, want kaspa", res.Prefix)
	}
	if res.Payload != knownPayload {
		t.Errorf("payload = %s, want %s", res.Payload, knownPayload)
	}
	if res.FullAddress != addr {
		t.Errorf("fullAddress = %s, want %s", res.FullAddress, addr)
	}
	if res.Err() != nil {
		t.Errorf("Err() = %v, want nil", res.Err())
	}
}

func TestValidate_MissingPrefix(t *testing.T) {
	for _, in := range []string{"bogus", "", knownPayload, "kaspa" + knownPayload} {
		res := Validate(in)
		if res.Valid {
			t.Errorf("Validate(%q) valid, want MissingPrefix", in)
			continue
		}
		if res.Reason != MissingPrefix {
			t.Errorf("Validate(%q) reason = %s, want %s", in, res.Reason, MissingPrefix)
		}
		if !strings.HasPrefix(res.Error, "Missing network prefix") {
			t.Errorf("Validate(%q) error = %q", in, res.Error)
		}
	}
}

func TestValidate_UnknownPrefix(t *testing.T) {
	res := Validate("unknown:" + knownPayload)
	if res.Valid || res.Reason != UnknownPrefix {
		t.Fatalf("got valid=%v reason=%s, want UnknownPrefix", res.Valid, res.Reason)
	}
	if !strings.Contains(res.Error, "'unknown'") {
		t.Errorf("error %q does not name the bad prefix", res.Error)
	}
	for _, p := range []string{"kaspa", "kaspatest", "kaspasim", "kaspadev"} {
		if !strings.Contains(res.Error, p) {
			t.Errorf("error %q does not list prefix %s", res.Error, p)
		}
	}
	if !IsReason(res.Err(), UnknownPrefix) {
		t.Errorf("IsReason(Err(), UnknownPrefix) = false")
	}
}

func TestValidate_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		address string
		reason  Reason
	}{
		{"empty payload", "kaspa:", InvalidLength},
		{"too short", "kaspa:" + strings.Repeat("q", MinPayloadLen-1), InvalidLength},
		{"too long", "kaspa:" + strings.Repeat("q", MaxPayloadLen+1), InvalidLength},
		{"uppercase", "kaspa:" + strings.ToUpper(knownPayload), InvalidCharacters},
		{"symbol", "kaspa:" + knownPayload[:60] + "!", InvalidCharacters},
		{"second colon", "kaspa:" + knownPayload[:60] + ":", InvalidCharacters},
		{"contains 1", "kaspa:" + knownPayload[:60] + "1", ForbiddenCharacters},
		{"contains b", "kaspa:" + knownPayload[:60] + "b", ForbiddenCharacters},
		{"contains i", "kaspa:" + knownPayload[:60] + "i", ForbiddenCharacters},
		{"contains o", "kaspa:" + knownPayload[:60] + "o", ForbiddenCharacters},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res := Validate(tc.address)
			if res.Valid {
				t.Fatalf("Validate(%q) valid, want %s", tc.address, tc.reason)
			}
			if res.Reason != tc.reason {
				t.Errorf("reason = %s, want %s (error %q)", res.Reason, tc.reason, res.Error)
			}
			if res.Error == "" {
				t.Error("empty error message")
			}
		})
	}
}

func TestValidate_LengthBoundsInclusive(t *testing.T) {
	for _, n := range []int{MinPayloadLen, MaxPayloadLen} {
		res := Validate("kaspa:" + strings.Repeat("q", n))
		if !res.Valid {
			t.Errorf("payload length %d rejected: %s", n, res.Error)
		}
	}
}

func TestValidate_GeneratedAddresses(t *testing.T) {
	r := rand.New(rand.NewSource(402))
	want := map[string]string{
		"kaspa":     "mainnet",
		"kaspatest": "testnet",
		"kaspasim":  "simnet",
		"kaspadev":  "devnet",
	}

	for prefix, network := range want {
		for i := 0; i < 50; i++ {
			n := MinPayloadLen + r.Intn(MaxPayloadLen-MinPayloadLen+1)
			addr := prefix + ":" + randomPayload(r, n)

			res := Validate(addr)
			if !res.Valid {
				t.Fatalf("Validate(%q) = %s", addr, res.Error)
			}
			if res.Network != network {
				t.Errorf("Validate(%q) network = %s, want %s", addr, res.Network, network)
			}
			if res.FullAddress != addr {
				t.Errorf("round trip: fullAddress = %s, want %s", res.FullAddress, addr)
			}
		}
	}
}

func TestValidate_ForbiddenNeverSucceeds(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for _, c := range "1bioBIO" {
		for i := 0; i < 20; i++ {
			p := []byte(randomPayload(r, 61))
			p[r.Intn(len(p))] = byte(c)
			res := Validate("kaspa:" + string(p))
			if res.Valid {
				t.Fatalf("payload with %q accepted", c)
			}
			if res.Reason != InvalidCharacters && res.Reason != ForbiddenCharacters {
				t.Errorf("payload with %q rejected with %s", c, res.Reason)
			}
		}
	}
}

func TestValidate_Idempotent(t *testing.T) {
	inputs := []string{"bogus", "kaspa:" + knownPayload, "kaspatest:" + knownPayload, "x:y"}
	for _, in := range inputs {
		a, b := Validate(in), Validate(in)
		if !reflect.DeepEqual(a, b) {
			t.Errorf("Validate(%q) not idempotent: %+v vs %+v", in, a, b)
		}
	}
}

func TestPrefixesOrder(t *testing.T) {
	got := Prefixes()
	want := []string{"kaspa", "kaspatest", "kaspasim", "kaspadev"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Prefixes() = %v, want %v", got, want)
	}
}
