package kafka

import (
	"testing"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/stretchr/testify/assert"
)

func TestParseBrokers(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{}},
		{"localhost:9092", []string{"localhost:9092"}},
		{" a:9092, ,b:9092 ", []string{"a:9092", "b:9092"}},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseBrokers(tt.raw))
		})
	}
}

func TestCreateChannel_NoBrokers(t *testing.T) {
	pub, sub, err := CreateChannel(watermill.NopLogger{}, nil, "cms")
	assert.ErrorIs(t, err, ErrNoBrokers)
	assert.Nil(t, pub)
	assert.Nil(t, sub)
}
