// Copyright 2021 ecodeclub
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

//go:build e2e

package e2e

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/ecodeclub/balance-api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"golang.org/x/sync/errgroup"
)

// Backend 同时提供数量快照和搬运能力的被测后端。
type Backend interface {
	balance.CountSource[string]
	Transfer(ctx context.Context, amount int64, from string, to string) (int64, error)
	// Seed 往指定箱子写入 n 个条目
	Seed(ctx context.Context, bin string, n int) error
}

type BackendCreator interface {
	Create(t *testing.T, bins []string) Backend
	Ping(ctx context.Context) error
}

type TestSuite struct {
	suite.Suite
	name    string
	creator BackendCreator
}

func NewTestSuite(name string, creator BackendCreator) *TestSuite {
	return &TestSuite{
		name:    name,
		creator: creator,
	}
}

func (s *TestSuite) SetupSuite() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(s.T(), s.creator.Ping(ctx))
}

func (s *TestSuite) TestRebalance收敛() {
	t := s.T()
	backend := s.creator.Create(t, []string{"shard-a", "shard-b", "shard-c"})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, backend.Seed(ctx, "shard-a", 11))
	require.NoError(t, backend.Seed(ctx, "shard-b", 3))
	require.NoError(t, backend.Seed(ctx, "shard-c", 5))

	records, err := backend.BinCounts(ctx)
	require.NoError(t, err)
	moved, err := balance.Rebalance(ctx, records, backend.Transfer)
	require.NoError(t, err)
	assert.Positive(t, moved)

	// 重新查询，确认物理状态也收敛到 low/high
	fresh, err := backend.BinCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{6, 6, 7}, sortedCounts(fresh))
	assert.Equal(t, int64(19), balance.Total(fresh))
}

func (s *TestSuite) TestRebalance空箱子() {
	t := s.T()
	backend := s.creator.Create(t, []string{"shard-a", "shard-b", "shard-c"})
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	require.NoError(t, backend.Seed(ctx, "shard-a", 9))

	records, err := backend.BinCounts(ctx)
	require.NoError(t, err)
	moved, err := balance.Rebalance(ctx, records, backend.Transfer)
	require.NoError(t, err)
	assert.Equal(t, int64(6), moved)

	fresh, err := backend.BinCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []int64{3, 3, 3}, sortedCounts(fresh))
}

func (s *TestSuite) TestConcurrentSeed守恒() {
	t := s.T()
	bins := []string{"shard-a", "shard-b", "shard-c", "shard-d"}
	backend := s.creator.Create(t, bins)
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	// 并发写入之后再做重平衡，条目总数必须守恒
	var eg errgroup.Group
	for i := 0; i < 10; i++ {
		i := i
		eg.Go(func() error {
			return backend.Seed(ctx, bins[i%len(bins)], 10)
		})
	}
	require.NoError(t, eg.Wait())

	records, err := backend.BinCounts(ctx)
	require.NoError(t, err)
	require.Equal(t, int64(100), balance.Total(records))
	_, err = balance.Rebalance(ctx, records, backend.Transfer)
	require.NoError(t, err)

	fresh, err := backend.BinCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(100), balance.Total(fresh))
	assert.Equal(t, []int64{25, 25, 25, 25}, sortedCounts(fresh))
}

func sortedCounts(records []balance.BinCount[string]) []int64 {
	counts := make([]int64, 0, len(records))
	for _, r := range records {
		counts = append(counts, r.Count)
	}
	sort.Slice(counts, func(i, j int) bool { return counts[i] < counts[j] })
	return counts
}
