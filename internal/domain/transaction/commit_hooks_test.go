package transaction

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAfterCommit(t *testing.T) {
	t.Run("正常系: トランザクション外では即座に実行", func(t *testing.T) {
		called := false
		AfterCommit(context.Background(), func() { called = true })
		assert.True(t, called)
	})

	t.Run("正常系: Runまで遅延し登録順に実行", func(t *testing.T) {
		ctx, hooks := WithCommitHooks(context.Background())
		var order []int
		AfterCommit(ctx, func() { order = append(order, 1) })
		AfterCommit(ctx, func() { order = append(order, 2) })
		assert.Empty(t, order)

		hooks.Run()
		assert.Equal(t, []int{1, 2}, order)

		// 2回目は何も実行しない
		hooks.Run()
		assert.Equal(t, []int{1, 2}, order)
	})
}
