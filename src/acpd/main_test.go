package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/fx"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

func TestDependenciesAreSatisfied(t *testing.T) {
	assert.NoError(t, fx.ValidateApp(opts()))
}

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestFxLogger(t *testing.T) {
	assert.NotNil(t, fxLogger(zap.NewNop()))
}
