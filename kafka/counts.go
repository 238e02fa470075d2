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

package kafka

import (
	"context"
	"net"
	"strconv"

	"github.com/ecodeclub/balance-api"
	"github.com/pkg/errors"
	"github.com/segmentio/kafka-go"
	"go.uber.org/multierr"
)

// CountSource 把一个 topic 每个分区的堆积量当作箱子数量上报，
// 箱子标识就是分区号。kafka 不支持把已经提交的消息搬到别的分区，
// 所以它只作为数量来源参与，搬运需要调用方在生产侧完成。
type CountSource struct {
	network string
	address []string
	topic   string
}

func NewCountSource(network string, address []string, topic string) *CountSource {
	return &CountSource{
		network: network,
		address: address,
		topic:   topic,
	}
}

// BinCounts 实现 balance.CountSource，
// 每个分区的数量为最新偏移量减去最早偏移量。
func (s *CountSource) BinCounts(ctx context.Context) ([]balance.BinCount[int], error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	conn, err := kafka.Dial(s.network, s.address[0])
	if err != nil {
		return nil, errors.Wrap(err, "kafka: 连接失败")
	}
	defer func() {
		_ = conn.Close()
	}()
	partitions, err := conn.ReadPartitions(s.topic)
	if err != nil {
		return nil, errors.Wrapf(err, "kafka: 读取topic %s 的分区失败", s.topic)
	}
	records := make([]balance.BinCount[int], 0, len(partitions))
	closeErrors := make([]error, 0, len(partitions))
	for _, p := range partitions {
		addr := net.JoinHostPort(p.Leader.Host, strconv.Itoa(p.Leader.Port))
		leader, err := kafka.DialLeader(ctx, s.network, addr, s.topic, p.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "kafka: 连接分区 %d 失败", p.ID)
		}
		first, err := leader.ReadFirstOffset()
		if err != nil {
			_ = leader.Close()
			return nil, errors.Wrapf(err, "kafka: 读取分区 %d 最早偏移量失败", p.ID)
		}
		last, err := leader.ReadLastOffset()
		if err != nil {
			_ = leader.Close()
			return nil, errors.Wrapf(err, "kafka: 读取分区 %d 最新偏移量失败", p.ID)
		}
		if err := leader.Close(); err != nil {
			closeErrors = append(closeErrors, err)
		}
		records = append(records, balance.BinCount[int]{ID: p.ID, Count: last - first})
	}
	if err := multierr.Combine(closeErrors...); err != nil {
		return nil, err
	}
	return records, nil
}
