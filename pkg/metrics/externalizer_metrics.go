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

package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	externalizerMetricSubsystem = "externalizer"
	codecMetricSubsystem        = "codec"
)

var (
	ExternalizerMetricsRegisterOnce sync.Once

	ExternalizerBuildTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: externalizorNamespace,
		Subsystem: externalizerMetricSubsystem,
		Name:      "build_total",
		Help:      "构建策略的次数，按成功/失败区分",
	}, []string{statusLabelName})

	ExternalizerBuildLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: externalizorNamespace,
		Subsystem: externalizerMetricSubsystem,
		Name:      "build_latency",
		Help:      "构建一个类型及其依赖类型的策略所花费的时间（毫秒）",
		Buckets:   buckets,
	})

	ExternalizerCachedStrategies = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: externalizorNamespace,
		Subsystem: externalizerMetricSubsystem,
		Name:      "cached_strategies",
		Help:      "已发布到缓存中的策略数量",
	})

	ExternalizerBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: externalizorNamespace,
		Subsystem: externalizerMetricSubsystem,
		Name:      "bytes_total",
		Help:      "Marshal/Unmarshal 处理的字节数",
	}, []string{operationLabelName})

	ExternalizerErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: externalizorNamespace,
		Subsystem: externalizerMetricSubsystem,
		Name:      "errors_total",
		Help:      "Marshal/Unmarshal 失败的次数",
	}, []string{operationLabelName})

	CodecMetricsRegisterOnce sync.Once

	CodecFrameSize = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: externalizorNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "frame_size",
		Help:      "帧负载压缩前后的字节数",
		Buckets:   sizeBuckets,
	}, []string{operationLabelName, algorithmLabelName})

	CodecFrameErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: externalizorNamespace,
		Subsystem: codecMetricSubsystem,
		Name:      "frame_errors_total",
		Help:      "读写帧失败的次数",
	}, []string{operationLabelName})
)

// RegisterExternalizerMetrics 注册 externalizer 相关指标，重复调用只生效一次。
func RegisterExternalizerMetrics(registry prometheus.Registerer) {
	ExternalizerMetricsRegisterOnce.Do(func() {
		registry.MustRegister(ExternalizerBuildTotal)
		registry.MustRegister(ExternalizerBuildLatency)
		registry.MustRegister(ExternalizerCachedStrategies)
		registry.MustRegister(ExternalizerBytes)
		registry.MustRegister(ExternalizerErrors)
	})
}

// RegisterCodecMetrics 注册帧编解码相关指标，重复调用只生效一次。
func RegisterCodecMetrics(registry prometheus.Registerer) {
	CodecMetricsRegisterOnce.Do(func() {
		registry.MustRegister(CodecFrameSize)
		registry.MustRegister(CodecFrameErrors)
	})
}
