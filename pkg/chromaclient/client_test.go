package chromaclient_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chromad/chromad/pkg/chromaclient"
	"github.com/chromad/chromad/pkg/chromatypes"
)

// testClient constructs a client backed by a simple in-memory responder.
// responses maps the route pattern, with its {id} placeholder not filled
// in, to a raw response line.
func testClient(responses map[string]string, err error) *chromaclient.Client {
	return chromaclient.WithTransport(chromaclient.NewMockTransport(func(path string, _ any, _ map[string]string) (string, error) {
		if err != nil {
			return "", err
		}
		if out, ok := responses[path]; ok {
			return out, nil
		}
		return "", nil
	}))
}

func TestClient_Ping(t *testing.T) {
	c := testClient(map[string]string{"ping": `{"server":"chromad","version":"1.2.3"}`}, nil)
	resp, err := c.Ping()
	require.NoError(t, err)
	assert.Equal(t, "chromad", resp.Server)
	assert.Equal(t, "1.2.3", resp.Version)
}

func TestClient_DeviceProperties(t *testing.T) {
	c := testClient(map[string]string{"device/{id}": `{"id":"dev-1","online":true,"brightness":75}`}, nil)
	props, err := c.DeviceProperties("dev-1")
	require.NoError(t, err)
	assert.True(t, props.Online)
	assert.Equal(t, uint8(75), props.Brightness)
}

func TestClient_SetFanRPM_ReportsOverride(t *testing.T) {
	c := testClient(map[string]string{"device/{id}/set_fan_rpm": `{"overridden":true,"reason":"thermal override active"}`}, nil)
	resp, err := c.SetFanRPM("laptop-0", 3500)
	require.NoError(t, err)
	assert.True(t, resp.Overridden)
	assert.Equal(t, "thermal override active", resp.Reason)
}

func TestClient_StructuredErrorUnwrapped(t *testing.T) {
	c := testClient(map[string]string{"ping": `{"status":500,"title":"Internal Server Error","detail":"boom"}`}, nil)
	_, err := c.Ping()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestClient_TransportFailure(t *testing.T) {
	c := testClient(nil, errors.New("dial fail"))
	_, err := c.ListDevices()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dial fail")
}

func TestClient_EmptyResponseIsError(t *testing.T) {
	c := testClient(map[string]string{}, nil)
	_, err := c.ListDevices()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestClient_SetBrightness_EmptyBodyIsSuccess(t *testing.T) {
	c := testClient(map[string]string{"device/{id}/set_brightness": ""}, nil)
	err := c.SetBrightness("dev-1", "backlight", 50)
	assert.NoError(t, err)
}

func TestClient_AddRenderer(t *testing.T) {
	c := testClient(map[string]string{"device/{id}/add_renderer": `{"layerId":"abc123"}`}, nil)
	resp, err := c.AddRenderer("dev-1", chromatypes.AddRendererRequest{Renderer: "plasma", ZOrder: 1})
	require.NoError(t, err)
	assert.Equal(t, "abc123", resp.LayerID)
}
