package gate

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvaluate(t *testing.T) {
	longBody := strings.Repeat("This product review covers build quality and value. ", 10)

	tests := []struct {
		name  string
		title string
		body  string
		want  SkipReason
	}{
		{
			name:  "clean content passes",
			title: "Honest review of the X200 headphones",
			body:  longBody,
			want:  "",
		},
		{
			name:  "error title exact match",
			title: "404",
			body:  longBody,
			want:  SkipErrorPage,
		},
		{
			name:  "error keyword in title",
			title: "Oops, access forbidden on this page",
			body:  longBody,
			want:  SkipErrorPage,
		},
		{
			name:  "error phrase in body lead",
			title: "Weird page",
			body:  "An error occurred while rendering this page. " + longBody,
			want:  SkipErrorPage,
		},
		{
			name:  "login title exact match",
			title: "Sign In",
			body:  longBody,
			want:  SkipLoginWall,
		},
		{
			name:  "two login patterns in body",
			title: "Continue",
			body:  "Please enter your username and password. Sign in to continue reading. " + longBody,
			want:  SkipLoginWall,
		},
		{
			name:  "single login pattern is not a wall",
			title: "Community guidelines",
			body:  "You can sign in to continue the discussion with other members. " + longBody,
			want:  "",
		},
		{
			name:  "short body",
			title: "Quick note",
			body:  "Too short to score.",
			want:  SkipInsufficientContent,
		},
		{
			name:  "empty everything",
			title: "",
			body:  "",
			want:  SkipInsufficientContent,
		},
	}

	g := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, g.Evaluate(tt.title, tt.body, "https://example.com/x"))
		})
	}
}

func TestEvaluatePriorityOrder(t *testing.T) {
	g := New()

	// A short error page reports error_page, not insufficient_content.
	assert.Equal(t, SkipErrorPage, g.Evaluate("404 Not Found", "nope", ""))

	// An error title on a login-looking body still reports error_page.
	body := "Please enter your username and password. Sign in to continue."
	assert.Equal(t, SkipErrorPage, g.Evaluate("Access Denied", body, ""))

	// A short login wall reports login_wall, not insufficient_content.
	assert.Equal(t, SkipLoginWall, g.Evaluate("Login", "short", ""))
}

func TestLoginPatternsOnlyCountInLead(t *testing.T) {
	g := New()

	// Patterns buried past the first 1000 characters do not trigger.
	filler := strings.Repeat("Genuine long form product commentary keeps going here. ", 25)
	body := filler + "username and password. sign in to continue."
	assert.Equal(t, SkipReason(""), g.Evaluate("Deep dive", body, ""))
}
