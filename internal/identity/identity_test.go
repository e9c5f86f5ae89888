package identity

import (
	"testing"

	"github.com/stackpeek/stackpeek/pkg/models"
)

func TestSimpleType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"sst:aws:Bucket", "Bucket"},
		{"aws:s3/bucketV2:BucketV2", "BucketV2"},
		{"aws:lambda/function:Function", "Function"},
		{"pulumi:pulumi:Stack", "Stack"},
		{"Bucket", "Bucket"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := SimpleType(tt.in); got != tt.want {
			t.Errorf("SimpleType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestURNName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"urn:pulumi:prod::shop::sst:aws:Bucket::uploads", "uploads"},
		{"no-separators", "no-separators"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := URNName(tt.in); got != tt.want {
			t.Errorf("URNName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestIsSecret(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want bool
	}{
		{
			name: "signature envelope",
			in:   map[string]any{"4dabf18193072939515e22adb298388d": "1b47061264138c4ac30d75fd1eb23252", "plaintext": "x"},
			want: true,
		},
		{
			name: "ciphertext envelope",
			in:   map[string]any{"ciphertext": "AAABB=="},
			want: true,
		},
		{
			name: "wrong signature value",
			in:   map[string]any{"4dabf18193072939515e22adb298388d": "something-else"},
			want: false,
		},
		{name: "plain map", in: map[string]any{"key": "value"}, want: false},
		{name: "string", in: "not a secret", want: false},
		{name: "nil", in: nil, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsSecret(tt.in); got != tt.want {
				t.Errorf("IsSecret() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSafeRender(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"string", "hello", "hello"},
		{"bool", true, "true"},
		{"integral float", float64(42), "42"},
		{"fractional float", 3.14, "3.14"},
		{"nil", nil, ""},
		{"secret envelope", map[string]any{"ciphertext": "AAA"}, "[secret]"},
		{
			"signed secret",
			map[string]any{"4dabf18193072939515e22adb298388d": "1b47061264138c4ac30d75fd1eb23252"},
			"[secret]",
		},
		{"plain map", map[string]any{"a": float64(1)}, `{"a":1}`},
		{"slice", []any{"x", "y"}, `["x","y"]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SafeRender(tt.in); got != tt.want {
				t.Errorf("SafeRender(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestDisplayID(t *testing.T) {
	tests := []struct {
		name string
		r    models.Resource
		want string
	}{
		{
			name: "physical id wins",
			r:    models.Resource{ID: "shop-prod-uploads", Outputs: map[string]any{"arn": "arn:aws:s3:::other"}},
			want: "shop-prod-uploads",
		},
		{
			name: "arn tail when no id",
			r:    models.Resource{Outputs: map[string]any{"arn": "arn:aws:lambda:eu-west-1:123456789012:function:shop-api"}},
			want: "shop-api",
		},
		{
			name: "name output when no id or arn",
			r:    models.Resource{Outputs: map[string]any{"name": "my-table"}},
			want: "my-table",
		},
		{
			name: "secret name is redacted, not leaked",
			r:    models.Resource{Outputs: map[string]any{"name": map[string]any{"ciphertext": "AAA"}}},
			want: "[secret]",
		},
		{
			name: "urn name as fallback",
			r:    models.Resource{URN: "urn:pulumi:prod::shop::sst:aws:Bucket::uploads"},
			want: "uploads",
		},
		{
			name: "nothing at all",
			r:    models.Resource{},
			want: "N/A",
		},
		{
			name: "route gets its route key",
			r: models.Resource{
				Type: "aws:apigatewayv2/route:Route",
				ID:   "abc123",
				Outputs: map[string]any{
					"routeKey": "GET /users",
				},
			},
			want: "abc123 : GET /users",
		},
		{
			name: "non-route ignores route key",
			r: models.Resource{
				Type:    "sst:aws:Function",
				ID:      "fn-1",
				Outputs: map[string]any{"routeKey": "GET /users"},
			},
			want: "fn-1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DisplayID(tt.r); got != tt.want {
				t.Errorf("DisplayID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestARNService(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"arn:aws:s3:::my-bucket", "s3"},
		{"arn:aws:lambda:eu-west-1:123456789012:function:fn", "lambda"},
		{"not-an-arn", ""},
		{"arn:aws:s3", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ARNService(tt.in); got != tt.want {
			t.Errorf("ARNService(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestARNTail(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"arn:aws:lambda:eu-west-1:123456789012:function:shop-api", "shop-api"},
		{"arn:aws:s3:::my-bucket", "my-bucket"},
		{"arn:aws:dynamodb:eu-west-1:123456789012:table/users", "users"},
		{"bare-name", "bare-name"},
	}
	for _, tt := range tests {
		if got := ARNTail(tt.in); got != tt.want {
			t.Errorf("ARNTail(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
