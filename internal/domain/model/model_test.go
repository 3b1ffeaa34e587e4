package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "19.99", want: 1999},
		{in: "5", want: 500},
		{in: " 7.5 ", want: 750},
		{in: "0", wantErr: true},
		{in: "1.234", wantErr: true},
		{in: "-3", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "", wantErr: true},
		{in: "3.", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParsePrice(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	assert.Equal(t, "19.05", FormatPrice(1905))
}

func TestCourseInput_Validate(t *testing.T) {
	in := CourseInput{Title: "  Go basics ", Price: "10", ImageURL: "https://img.example.com/go.png"}
	require.NoError(t, in.Validate())
	assert.Equal(t, "Go basics", in.Title)
	assert.Equal(t, int64(1000), in.PriceCents())

	bad := CourseInput{Title: "Go", Price: "10", ImageURL: "javascript:alert(1)"}
	assert.Error(t, bad.Validate())
}

func TestRegisterRequest_Validate(t *testing.T) {
	req := RegisterRequest{Email: " Ann@Example.com ", Name: "Ann", Password: "secret1", Confirm: "secret1"}
	require.NoError(t, req.Validate())
	assert.Equal(t, "ann@example.com", req.Email)

	req = RegisterRequest{Email: "ann@example.com", Name: "Ann", Password: "secret1", Confirm: "secret2"}
	assert.EqualError(t, req.Validate(), "passwords do not match")

	req = RegisterRequest{Email: "nope", Name: "Ann", Password: "secret1", Confirm: "secret1"}
	assert.Error(t, req.Validate())
}

func TestCartTotals(t *testing.T) {
	c := Cart{Items: []CartItem{{PriceCents: 1000, Quantity: 2}, {PriceCents: 250, Quantity: 1}}}
	assert.Equal(t, int64(2250), c.TotalCents())

	o := Order{Items: []OrderItem{{PriceCents: 999, Quantity: 3}}}
	assert.Equal(t, int64(2997), o.TotalCents())
}
