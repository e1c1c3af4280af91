// Licensed to the LF AI & Data foundation under one
// or more contributor license agreements. See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership. The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License. You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package conc

import (
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

func TestPool(t *testing.T) {
	pool, err := NewDefaultPool[int]()
	require.NoError(t, err)
	defer pool.Release()

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * i, nil
		}))
	}
	require.NoError(t, AwaitAll(futures...))
	for i, future := range futures {
		assert.Equal(t, i*i, future.Value())
		assert.True(t, future.OK())
	}
	assert.Greater(t, pool.Cap(), 0)
}

func TestPoolError(t *testing.T) {
	pool, err := NewPool[int](2)
	require.NoError(t, err)
	defer pool.Release()

	errFailed := errors.New("failed")
	ok := pool.Submit(func() (int, error) { return 1, nil })
	bad := pool.Submit(func() (int, error) { return 0, errFailed })

	assert.ErrorIs(t, AwaitAll(ok, bad), errFailed)
	v, err := bad.Await()
	assert.Equal(t, 0, v)
	assert.ErrorIs(t, err, errFailed)
}

func TestPoolConcealPanic(t *testing.T) {
	var calls atomic.Int32
	pool, err := NewPool[int](1, WithConcealPanic(true), WithPreHandler(func() { calls.Inc() }))
	require.NoError(t, err)
	defer pool.Release()

	future := pool.Submit(func() (int, error) { panic("boom") })
	assert.Error(t, future.Err())
	<-future.Inner()
	assert.Equal(t, int32(1), calls.Load())
}

func TestPoolOptions(t *testing.T) {
	opt := defaultPoolOption()
	assert.False(t, opt.concealPanic)
	assert.Nil(t, opt.preHandler)
	assert.Len(t, opt.antsOptions(), 1)

	WithConcealPanic(true)(opt)
	WithPreHandler(func() {})(opt)
	assert.True(t, opt.concealPanic)
	assert.NotNil(t, opt.preHandler)
	assert.Len(t, opt.antsOptions(), 1)
}

func TestPoolInvalidCapacity(t *testing.T) {
	_, err := NewPool[int](0)
	assert.Error(t, err)
}

func TestGo(t *testing.T) {
	future := Go(func() (string, error) { return "done", nil })
	v, err := future.Await()
	require.NoError(t, err)
	assert.Equal(t, "done", v)
}
