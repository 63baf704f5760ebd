package domain

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageError_UnwrapsCause(t *testing.T) {
	err := fmt.Errorf("run: %w", &StageError{Stage: StageLabeling, Err: context.Canceled})

	assert.True(t, errors.Is(err, context.Canceled))
	stage, ok := StageOf(err)
	assert.True(t, ok)
	assert.Equal(t, StageLabeling, stage)
	assert.Contains(t, err.Error(), "stage labeling")
}

func TestStageOf_NoStage(t *testing.T) {
	_, ok := StageOf(errors.New("plain"))
	assert.False(t, ok)
}

func TestParseError_IsUnparseable(t *testing.T) {
	err := &ParseError{What: "cluster_table", Snippet: "hello"}
	assert.True(t, errors.Is(err, ErrUnparseable))
	assert.Contains(t, err.Error(), "cluster_table")
}
