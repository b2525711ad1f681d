package externalizer

import (
	"time"

	"github.com/lk2023060901/externalizor-go/pkg/wire"
)

type Color int32

const (
	Red Color = iota
	Green
	Blue
)

func (Color) EnumValues() []string { return []string{"red", "green", "blue"} }

type Level uint8

func (*Level) EnumValues() []string { return []string{"low", "high"} }

type Point struct {
	X, Y int32
}

// Version 使用自定义的 4 字节布局。
type Version struct {
	Major, Minor uint16
}

func (v *Version) WriteExternal(out wire.Sink) error {
	return out.WriteUint32(uint32(v.Major)<<16 | uint32(v.Minor))
}

func (v *Version) ReadExternal(in wire.Source) error {
	n, err := in.ReadUint32()
	if err != nil {
		return err
	}
	v.Major, v.Minor = uint16(n>>16), uint16(n)
	return nil
}

// Session 只外部化 Token，Hits 由构造方决定。
type Session struct {
	Token string
	Hits  int32
}

func (s *Session) WriteExternal(out wire.Sink) error {
	return out.WriteString(s.Token)
}

func (s *Session) ReadExternal(in wire.Source) error {
	token, err := in.ReadString()
	if err != nil {
		return err
	}
	s.Token = token
	return nil
}

type Everything struct {
	B    bool
	I8   int8
	I16  int16
	I32  int32
	I64  int64
	I    int
	U8   uint8
	U16  uint16
	U32  uint32
	U64  uint64
	U    uint
	F32  float32
	F64  float64
	C64  complex64
	C128 complex128
	S    string

	PB *bool
	PI *int32
	PS *string

	Color  Color
	PColor *Color
	Level  Level
	Colors []Color

	Arr     [3]int16
	Ints    []int32
	Bytes   []byte
	Names   []string
	Points  []Point
	PPoints []*Point
	Matrix  [][]int8

	Map       map[string]int32
	NestedMap map[int32][]string
	PointMap  map[Point]*Point

	Point  Point
	PPoint *Point

	Version  Version
	PVersion *Version
	Versions map[string]Version

	When  time.Time
	PWhen *time.Time
}

func ptr[T any](v T) *T { return &v }

func fullEverything() *Everything {
	when := time.Date(2024, 1, 2, 3, 4, 5, 6, time.UTC)
	return &Everything{
		B: true, I8: -8, I16: -16, I32: -32, I64: -64, I: -1,
		U8: 8, U16: 16, U32: 32, U64: 64, U: 1,
		F32: 1.5, F64: -2.5, C64: complex(1, -1), C128: complex(-2, 2),
		S:  "héllo",
		PB: ptr(false), PI: ptr(int32(7)), PS: ptr(""),
		Color: Blue, PColor: ptr(Green), Level: 1, Colors: []Color{Red, Blue},
		Arr:     [3]int16{1, -2, 3},
		Ints:    []int32{1, 2, 3},
		Bytes:   []byte{0, 1, 255},
		Names:   []string{"a", "", "c"},
		Points:  []Point{{1, 2}, {3, 4}},
		PPoints: []*Point{{5, 6}, nil},
		Matrix:  [][]int8{{1}, nil, {2, 3}},
		Map:     map[string]int32{"a": 1, "b": 2, "c": 3},
		NestedMap: map[int32][]string{
			1: {"x"},
			2: nil,
		},
		PointMap: map[Point]*Point{{1, 1}: {2, 2}, {3, 3}: nil},
		Point:    Point{9, 10},
		PPoint:   &Point{11, 12},
		Version:  Version{1, 2},
		PVersion: &Version{3, 4},
		Versions: map[string]Version{"v": {5, 6}},
		When:     when,
		PWhen:    &when,
	}
}

// Scenario 对应固定布局的示例：count=3, label="abc", values=[1,2,3], counts={"a":1,"b":2}。
type Scenario struct {
	Count  int32
	Label  string
	Values []int32
	Counts map[string]int32
}

type WithTransient struct {
	A      int32
	Skip   int32 `extern:"-"`
	hidden int32
	B      string
	Cache  map[string]int `extern:"-,omitempty"`
}

type Base struct {
	ID   int64
	Name string
}

type Derived struct {
	Base
	Extra bool
}

type inner struct {
	Visible int32
	hidden  int32
}

type Outer struct {
	inner
	Z int8
}

type Node struct {
	Value    int32
	Next     *Node
	Children []Node
}

type List []List

type Holder struct {
	P *Point
}
