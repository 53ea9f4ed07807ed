package registry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCreateHTTPCheck(t *testing.T) {
	check := CreateHTTPCheck("bizcore-8080", "127.0.0.1", 8080, "/health", "10s", "1s")

	assert.Equal(t, "check_bizcore-8080_http", check.CheckID)
	assert.Equal(t, "http://127.0.0.1:8080/health", check.HTTP)
	assert.Equal(t, "GET", check.Method)
	assert.Equal(t, "10s", check.Interval)
	assert.Equal(t, "1s", check.Timeout)
	assert.Equal(t, "1m", check.DeregisterCriticalServiceAfter)
}

func TestCreateGRPCCheck(t *testing.T) {
	check := CreateGRPCCheck("bizcore-grpc-50051", "127.0.0.1", 50051, "10s", "1s")

	assert.Equal(t, "check_bizcore-grpc-50051_grpc", check.CheckID)
	assert.Equal(t, "127.0.0.1:50051", check.GRPC)
	assert.Equal(t, "10s", check.Interval)
	assert.Equal(t, "1s", check.Timeout)
	assert.Equal(t, "1m", check.DeregisterCriticalServiceAfter)
}
