package serializer

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/lk2023060901/externalizor-go/pkg/externalizer"
	"github.com/lk2023060901/externalizor-go/pkg/util/merr"
)

type order struct {
	ID       int64            `json:"id"`
	Customer string           `json:"customer"`
	Items    []item           `json:"items"`
	Tags     map[string]int32 `json:"tags"`
	Paid     bool             `json:"paid"`
}

type item struct {
	SKU      string  `json:"sku"`
	Quantity int32   `json:"quantity"`
	Price    float64 `json:"price"`
}

func sampleOrder() *order {
	o := &order{ID: 42, Customer: "ada", Tags: map[string]int32{"vip": 1}, Paid: true}
	for i := range 16 {
		o.Items = append(o.Items, item{SKU: fmt.Sprintf("sku-%02d", i), Quantity: int32(i), Price: float64(i) * 1.5})
	}
	return o
}

func TestSerializers(t *testing.T) {
	serializers := []Serializer{
		NewExternSerializer(nil),
		NewExternSerializer(externalizer.NewRegistry()),
		JSONSerializer{},
	}
	for _, s := range serializers {
		t.Run(s.Name(), func(t *testing.T) {
			in := sampleOrder()
			data, err := s.Marshal(in)
			require.NoError(t, err)

			out := &order{}
			require.NoError(t, s.Unmarshal(data, out))
			assert.Equal(t, in, out)
		})
	}
}

func TestExternIsSmallerThanJSON(t *testing.T) {
	in := sampleOrder()
	ext, err := NewExternSerializer(nil).Marshal(in)
	require.NoError(t, err)
	js, err := JSONSerializer{}.Marshal(in)
	require.NoError(t, err)
	assert.Less(t, len(ext), len(js))
}

func TestProtoSerializer(t *testing.T) {
	s := ProtoSerializer{}
	assert.Equal(t, "proto", s.Name())

	data, err := s.Marshal(wrapperspb.String("abc"))
	require.NoError(t, err)
	out := &wrapperspb.StringValue{}
	require.NoError(t, s.Unmarshal(data, out))
	assert.Equal(t, "abc", out.GetValue())

	_, err = s.Marshal(sampleOrder())
	assert.ErrorIs(t, err, merr.ErrParameterInvalid)
	assert.ErrorIs(t, s.Unmarshal(data, &order{}), merr.ErrParameterInvalid)
}

func benchmarkMarshal(b *testing.B, s Serializer, v any) {
	b.ReportAllocs()
	data, err := s.Marshal(v)
	require.NoError(b, err)
	b.ReportMetric(float64(len(data)), "bytes/op")
	b.ResetTimer()
	for range b.N {
		if _, err := s.Marshal(v); err != nil {
			b.Fatal(err)
		}
	}
}

func benchmarkUnmarshal(b *testing.B, s Serializer, v any, newTarget func() any) {
	b.ReportAllocs()
	data, err := s.Marshal(v)
	require.NoError(b, err)
	b.ResetTimer()
	for range b.N {
		if err := s.Unmarshal(data, newTarget()); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkMarshalExtern(b *testing.B) {
	benchmarkMarshal(b, NewExternSerializer(nil), sampleOrder())
}

func BenchmarkMarshalJSON(b *testing.B) {
	benchmarkMarshal(b, JSONSerializer{}, sampleOrder())
}

func BenchmarkMarshalProto(b *testing.B) {
	msg, err := structpb.NewStruct(map[string]any{"id": 42, "customer": "ada", "paid": true})
	require.NoError(b, err)
	benchmarkMarshal(b, ProtoSerializer{}, msg)
}

func BenchmarkUnmarshalExtern(b *testing.B) {
	benchmarkUnmarshal(b, NewExternSerializer(nil), sampleOrder(), func() any { return &order{} })
}

func BenchmarkUnmarshalJSON(b *testing.B) {
	benchmarkUnmarshal(b, JSONSerializer{}, sampleOrder(), func() any { return &order{} })
}
