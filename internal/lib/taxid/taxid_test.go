package taxid

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name       string
		input      string
		wantDigits string
		wantKind   Kind
		wantErr    bool
	}{
		{
			name:       "корректный CPF с форматированием",
			input:      "529.982.247-25",
			wantDigits: "52998224725",
			wantKind:   CPF,
		},
		{
			name:       "корректный CPF без форматирования",
			input:      "52998224725",
			wantDigits: "52998224725",
			wantKind:   CPF,
		},
		{
			name:       "корректный CNPJ с форматированием",
			input:      "11.222.333/0001-81",
			wantDigits: "11222333000181",
			wantKind:   CNPJ,
		},
		{
			name:    "CPF с неверной контрольной цифрой",
			input:   "529.982.247-24",
			wantErr: true,
		},
		{
			name:    "CNPJ с неверной контрольной цифрой",
			input:   "11.222.333/0001-82",
			wantErr: true,
		},
		{
			name:    "CPF из одинаковых цифр",
			input:   "111.111.111-11",
			wantErr: true,
		},
		{
			name:    "слишком короткая строка",
			input:   "12345",
			wantErr: true,
		},
		{
			name:    "пустая строка",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			digits, kind, err := Validate(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalid)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantDigits, digits)
			assert.Equal(t, tt.wantKind, kind)
		})
	}
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "52998224725", Normalize("529.982.247-25"))
	assert.Equal(t, "", Normalize("abc-/."))
}
