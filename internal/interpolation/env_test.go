package interpolation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mapLookup(env map[string]string) LookupFunc {
	return func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}
}

func TestExpand(t *testing.T) {
	t.Parallel()

	env := mapLookup(map[string]string{
		"TOKEN": "s3cret",
		"PORT":  "8080",
		"EMPTY": "",
	})

	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "empty input", input: "", want: ""},
		{name: "no references", input: "plain text", want: "plain text"},
		{name: "set variable", input: "${TOKEN}", want: "s3cret"},
		{name: "embedded", input: "127.0.0.1:${PORT}", want: "127.0.0.1:8080"},
		{name: "set wins over default", input: "${PORT:9090}", want: "8080"},
		{name: "default used", input: "${MISSING:fallback}", want: "fallback"},
		{name: "empty default", input: "x${MISSING:}y", want: "xy"},
		{name: "set but empty", input: "[${EMPTY:zzz}]", want: "[]"},
		{name: "default with colon", input: "${MISSING:localhost:80}", want: "localhost:80"},
		{name: "undefined kept and reported", input: "a ${MISSING} b", want: "a ${MISSING} b", wantErr: true},
		{name: "invalid name untouched", input: "${1BAD}", want: "${1BAD}"},
		{name: "dollar without braces", input: "$TOKEN", want: "$TOKEN"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Expand(tt.input, env)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUndefined)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExpandReportsEveryMissingVariable(t *testing.T) {
	t.Parallel()

	_, err := Expand("${ONE} ${TWO}", mapLookup(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ONE")
	assert.Contains(t, err.Error(), "TWO")
}

func TestExpandEnv(t *testing.T) {
	t.Setenv("TOOLGATE_TEST_VALUE", "from-env")

	got, err := ExpandEnv("${TOOLGATE_TEST_VALUE}")
	require.NoError(t, err)
	assert.Equal(t, "from-env", got)
}
