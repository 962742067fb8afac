package codec

import (
	"testing"

	"github.com/go-kratos/kratos/v2/encoding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func TestMarshalIndent(t *testing.T) {
	data, err := MarshalIndent(map[string]any{"name": "Ratón <USB> & teclado"})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"name\": \"Ratón <USB> & teclado\"\n}", string(data))
}

func TestSemanticEqual(t *testing.T) {
	assert.True(t, SemanticEqual([]byte(`{"a":1,"b":[1,2]}`), []byte("{\n    \"b\": [1, 2],\n    \"a\": 1.0\n}")))
	assert.False(t, SemanticEqual([]byte(`{"a":1}`), []byte(`{"a":2}`)))
	assert.False(t, SemanticEqual([]byte(`{"a":1}`), []byte(`not json`)))
}

func TestCodec_Registered(t *testing.T) {
	c := encoding.GetCodec(Name)
	require.NotNil(t, c)

	data, err := c.Marshal(&healthpb.HealthCheckResponse{Status: healthpb.HealthCheckResponse_SERVING})
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"SERVING"}`, string(data))

	var resp healthpb.HealthCheckResponse
	require.NoError(t, c.Unmarshal([]byte(`{"status":"NOT_SERVING","extra":1}`), &resp))
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)

	data, err = c.Marshal(map[string]string{"q": "a&b"})
	require.NoError(t, err)
	assert.Equal(t, `{"q":"a&b"}`, string(data))
}
