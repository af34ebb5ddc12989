package pkgText

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeScalars(t *testing.T) {
	m, err := Decode("Name=/Lotus/Language/Items/Foo\nCount=12\nRatio=0.25\nNeg=-3\nFlag=true\nQuoted=\"12\"\nEmpty=\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"Name", "Count", "Ratio", "Neg", "Flag", "Quoted", "Empty"}, m.Keys())
	assert.Equal(t, "/Lotus/Language/Items/Foo", m.GetString("Name"))

	v, _ := m.Get("Count")
	n, ok := v.AsInt()
	require.True(t, ok)
	assert.Equal(t, int64(12), n)

	v, _ = m.Get("Ratio")
	f, ok := v.AsFloat()
	require.True(t, ok)
	assert.InDelta(t, 0.25, f, 1e-9)

	v, _ = m.Get("Neg")
	n, _ = v.AsInt()
	assert.Equal(t, int64(-3), n)

	v, _ = m.Get("Flag")
	b, ok := v.AsBool()
	require.True(t, ok)
	assert.True(t, b)

	assert.Equal(t, "12", m.GetString("Quoted"), "quoted values stay strings")
	assert.Equal(t, "", m.GetString("Empty"))
}

func TestDecodeBlocks(t *testing.T) {
	text := `AdditionalItems={"ExaltedBlade","/Lotus/Skins/Foo"}
Upgrades={{UpgradeType=/Lotus/Upgrades/Damage,Value=0.1,LocTag=Lotus/Language/Upgrade},{UpgradeType=/Lotus/Upgrades/Speed,Value=2}}
Behaviors={
  {fire={projectileType=Projectiles/Arrow,AIMED_ACCURACY=""}}
}
Nothing={}
Words={alpha, beta , gamma}
`
	m, err := Decode(text)
	require.NoError(t, err)

	items, ok := mustGet(t, m, "AdditionalItems").AsList()
	require.True(t, ok)
	require.Len(t, items, 2)
	s, _ := items[1].Str()
	assert.Equal(t, "/Lotus/Skins/Foo", s)

	upgrades, ok := mustGet(t, m, "Upgrades").AsList()
	require.True(t, ok)
	require.Len(t, upgrades, 2)
	first, ok := upgrades[0].AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"UpgradeType", "Value", "LocTag"}, first.Keys())
	assert.Equal(t, "Lotus/Language/Upgrade", first.GetString("LocTag"))

	behaviors, ok := mustGet(t, m, "Behaviors").AsList()
	require.True(t, ok)
	require.Len(t, behaviors, 1)
	behavior, ok := behaviors[0].AsMap()
	require.True(t, ok)
	fire, ok := mustGet(t, behavior, "fire").AsMap()
	require.True(t, ok)
	assert.Equal(t, "Projectiles/Arrow", fire.GetString("projectileType"))
	assert.Equal(t, "", fire.GetString("AIMED_ACCURACY"))

	nothing, ok := mustGet(t, m, "Nothing").AsMap()
	require.True(t, ok)
	assert.Equal(t, 0, nothing.Len())

	words, ok := mustGet(t, m, "Words").AsList()
	require.True(t, ok)
	require.Len(t, words, 3)
	s, _ = words[1].Str()
	assert.Equal(t, "beta", s)
}

func TestDecodeNewlineSeparatedBlock(t *testing.T) {
	m, err := Decode("Stats={\n  Armor=100\n  Health=300\n}\n")
	require.NoError(t, err)

	stats, ok := mustGet(t, m, "Stats").AsMap()
	require.True(t, ok)
	assert.Equal(t, []string{"Armor", "Health"}, stats.Keys())
}

func TestDecodeDuplicateKeyKeepsFirstPosition(t *testing.T) {
	m, err := Decode("A=1\nB=2\nA=3\n")
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, m.Keys())
	n, _ := mustGet(t, m, "A").AsInt()
	assert.Equal(t, int64(3), n)
}

func TestDecodeErrors(t *testing.T) {
	tests := []struct {
		name string
		text string
		line int
	}{
		{name: "missing equals", text: "Good=1\nBad\n", line: 2},
		{name: "unterminated block", text: "A={1,2", line: 1},
		{name: "unterminated string", text: "A=\"abc", line: 1},
		{name: "stray brace", text: "A=1}\n", line: 1},
		{name: "missing separator", text: "A={\"x\" \"y\"}", line: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.text)
			var decodeErr *DecodeError
			require.ErrorAs(t, err, &decodeErr)
			assert.Equal(t, tt.line, decodeErr.Line)
		})
	}
}

func TestScalarNumericGuard(t *testing.T) {
	for _, tok := range []string{"inf", "NaN", "Infinity", "e5", "1.2.3"} {
		v := scalar(tok)
		assert.Equal(t, KindString, v.Kind(), tok)
	}
	assert.Equal(t, KindFloat, scalar("1e3").Kind())
	assert.Equal(t, KindInt, scalar("+7").Kind())
}

func TestOverlayAndDeepClone(t *testing.T) {
	parent, err := Decode("x=1\ny=2\nnested={a=1,b=2}\n")
	require.NoError(t, err)
	child, err := Decode("y=3\nnested={c=3}\n")
	require.NoError(t, err)

	merged := parent.DeepClone()
	merged.Overlay(child)

	assert.Equal(t, []string{"x", "y", "nested"}, merged.Keys())
	n, _ := mustGet(t, merged, "y").AsInt()
	assert.Equal(t, int64(3), n)
	nested, _ := mustGet(t, merged, "nested").AsMap()
	assert.Equal(t, []string{"c"}, nested.Keys(), "nested maps are replaced, not merged")

	nested.Set("d", Int(4))
	original, _ := mustGet(t, parent, "nested").AsMap()
	assert.Equal(t, []string{"a", "b"}, original.Keys())
}

func TestMarshalJSON(t *testing.T) {
	m, err := Decode("b={1,2}\na=\"x\"\n")
	require.NoError(t, err)

	out, err := m.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"x","b":[1,2]}`, string(out))
}

func mustGet(t *testing.T, m *Map, key string) Value {
	t.Helper()
	v, ok := m.Get(key)
	require.True(t, ok, "missing field %s", key)
	return v
}
