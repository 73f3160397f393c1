package subtitle

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

const sampleSRT = `1
00:00:01,000 --> 00:00:03,500
第一句台词

2
00:00:04,000 --> 00:00:06,000
第二句台词
跨两行

3
00:00:07,250 --> 00:00:09,000
第三句台词
`

func TestParseBasic(t *testing.T) {
	lines, warnings, err := Parse(sampleSRT)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(warnings) != 0 {
		t.Errorf("unexpected warnings: %v", warnings)
	}
	if len(lines) != 3 {
		t.Fatalf("lines = %d, want 3", len(lines))
	}
	if lines[0].Index != 1 || lines[2].Index != 3 {
		t.Errorf("indices not contiguous: %+v", lines)
	}
	if lines[0].Start != 1.0 || lines[0].End != 3.5 {
		t.Errorf("line 0 timing = %f..%f", lines[0].Start, lines[0].End)
	}
	if lines[1].Text != "第二句台词\n跨两行" {
		t.Errorf("multi-line text = %q", lines[1].Text)
	}
}

func TestParseSkipsMalformedBlocks(t *testing.T) {
	content := sampleSRT + `
4
garbage timing row
被跳过的台词

5
00:00:10,000 --> 00:00:12,000
最后一句
`
	lines, warnings, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(lines) != 4 {
		t.Errorf("lines = %d, want 4 (bad block skipped)", len(lines))
	}
	if len(warnings) != 1 {
		t.Fatalf("warnings = %v, want exactly one", warnings)
	}
	if !strings.Contains(warnings[0].Message, "malformed timing") {
		t.Errorf("warning message = %q", warnings[0].Message)
	}
}

func TestParseSkipsOutOfOrderBlocks(t *testing.T) {
	content := sampleSRT + `
4
00:00:02,000 --> 00:00:04,000
时间倒退的台词
`
	lines, warnings, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(lines) != 3 {
		t.Errorf("lines = %d, want 3", len(lines))
	}
	if len(warnings) != 1 || !strings.Contains(warnings[0].Message, "out of order") {
		t.Errorf("warnings = %v", warnings)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, _, err := Parse("just some prose with no timings")
	if !errors.Is(err, ErrParse) {
		t.Fatalf("err = %v, want ErrParse", err)
	}
}

func TestParseAppliesTypoCorrections(t *testing.T) {
	content := `1
00:00:01,000 --> 00:00:03,000
聽證會上提交証據
`
	lines, _, err := Parse(content)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if lines[0].Text != "听证会上提交证据" {
		t.Errorf("text = %q, corrections not applied", lines[0].Text)
	}
}

func TestParseDeterministic(t *testing.T) {
	first, _, err := Parse(sampleSRT)
	if err != nil {
		t.Fatal(err)
	}
	second, _, err := Parse(sampleSRT)
	if err != nil {
		t.Fatal(err)
	}
	if fmt.Sprint(first) != fmt.Sprint(second) {
		t.Error("repeated parses differ")
	}
}

func TestTimestampRoundTrip(t *testing.T) {
	cases := []struct {
		text    string
		seconds float64
	}{
		{"00:00:00,000", 0},
		{"00:05:12,000", 312},
		{"01:02:03,450", 3723.45},
	}
	for _, tc := range cases {
		got, err := ParseTimestamp(tc.text)
		if err != nil {
			t.Fatalf("ParseTimestamp(%q): %v", tc.text, err)
		}
		if got != tc.seconds {
			t.Errorf("ParseTimestamp(%q) = %f, want %f", tc.text, got, tc.seconds)
		}
		if back := FormatTimestamp(tc.seconds); back != tc.text {
			t.Errorf("FormatTimestamp(%f) = %q, want %q", tc.seconds, back, tc.text)
		}
	}
	if _, err := ParseTimestamp("00:00:xx,000"); err == nil {
		t.Error("expected error for garbage timestamp")
	}
	// Period separator tolerated.
	if got, err := ParseTimestamp("00:00:01.500"); err != nil || got != 1.5 {
		t.Errorf("period separator: got %f, err %v", got, err)
	}
}

func TestDecodeGBK(t *testing.T) {
	// "证据" encoded as GBK.
	gbk := []byte{0xD6, 0xA4, 0xBE, 0xDD}
	decoded, err := Decode(gbk)
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded != "证据" {
		t.Errorf("decoded = %q, want %q", decoded, "证据")
	}
}

func TestDecodeUTF8BOM(t *testing.T) {
	decoded, err := Decode([]byte("\xEF\xBB\xBFhello"))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if decoded != "hello" {
		t.Errorf("decoded = %q", decoded)
	}
}
