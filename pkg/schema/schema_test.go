package schema

import (
	"errors"
	"testing"

	"github.com/firecms/cms/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProductJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
	}{
		{"minimal", `{"id":"demo-1"}`, false},
		{"full", `{
			"id": "fe-abc-3.3kg",
			"nameKo": "ABC 분말소화기",
			"gallery_images_data": [{"id": "g1", "src": "/img/1.jpg"}],
			"videos": [{"src": "/v/1.mp4"}],
			"specTable": [{"title": "약제중량", "value": "3.3kg"}],
			"cautions": ["직사광선을 피하십시오"],
			"model3D": {"src": "/models/fe.glb"},
			"additionalSections": [{"title": "보증", "content": "1년"}]
		}`, false},
		{"nulls allowed", `{"id":"demo-1","videos":null,"model3D":null,"nameKo":null}`, false},
		{"missing id", `{"nameKo":"데모"}`, true},
		{"unsafe id", `{"id":"../etc"}`, true},
		{"id wrong type", `{"id":42}`, true},
		{"spec row without value", `{"id":"demo-1","specTable":[{"title":"무게"}]}`, true},
		{"model without src", `{"id":"demo-1","model3D":{"poster":"/p.webp"}}`, true},
		{"cautions not strings", `{"id":"demo-1","cautions":[1,2]}`, true},
		{"not an object", `["demo-1"]`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateProductJSON([]byte(tt.raw))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidProduct)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateProductJSON_ListsEveryProblem(t *testing.T) {
	err := ValidateProductJSON([]byte(`{"id":"../x","videos":[{"title":"no src"}]}`))

	var validationErr *ValidationError
	require.True(t, errors.As(err, &validationErr))
	assert.Len(t, validationErr.Problems, 2)
}

func TestValidateProductJSON_Malformed(t *testing.T) {
	err := ValidateProductJSON([]byte(`{"id":`))
	assert.ErrorIs(t, err, ErrInvalidProduct)
}

func TestValidateProduct_GoValue(t *testing.T) {
	assert.NoError(t, ValidateProduct(&models.Product{ID: "demo-1", NameKo: "데모 제품"}))
	assert.ErrorIs(t, ValidateProduct(&models.Product{ID: ""}), ErrInvalidProduct)
	assert.ErrorIs(t, ValidateProduct(&models.Product{ID: "ok", Model3D: &models.Model3D{}}), ErrInvalidProduct)
}
