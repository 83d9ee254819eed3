package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"go.viam.com/test"
)

type maskStats struct {
	Width  int
	Height int
	pixels int
}

// assertLogMatches will fuzzy match log lines. Notably, this checks the time format, but ignores
// the exact time. And it expects a match on the filename, but the exact line number can be wrong.
func assertLogMatches(t *testing.T, actual *bytes.Buffer, expected string) {
	t.Helper()

	output, err := actual.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)

	actualParts := strings.Split(strings.TrimSuffix(output, "\n"), "\t")
	expectedParts := strings.Split(expected, "\t")
	// Use the length of the first string as a weak verification of checking that the result looks like a date.
	test.That(t, len(actualParts[0]), test.ShouldEqual, len(expectedParts[0]))
	test.That(t, actualParts[1], test.ShouldEqual, expectedParts[1])

	actualFilename, actualLineNumber, found := strings.Cut(actualParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	expectedFilename, _, found := strings.Cut(expectedParts[2], ":")
	test.That(t, found, test.ShouldBeTrue)
	test.That(t, actualFilename, test.ShouldEqual, expectedFilename)
	_, err = strconv.Atoi(actualLineNumber)
	test.That(t, err, test.ShouldBeNil)

	test.That(t, actualParts[3], test.ShouldEqual, expectedParts[3])

	test.That(t, len(actualParts), test.ShouldEqual, len(expectedParts))
	if len(actualParts) == 4 {
		return
	}

	// Compare the structured part as maps, key order is not part of the contract.
	expectedMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(expectedParts[4]), &expectedMap), test.ShouldBeNil)
	actualMap := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(actualParts[4]), &actualMap), test.ShouldBeNil)
	test.That(t, actualMap, test.ShouldResemble, expectedMap)
}

func newBufferLogger(name string, level Level) (*impl, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return &impl{name, NewAtomicLevelAt(level), true, []Appender{NewWriterAppender(buf)}}, buf
}

func TestConsoleOutputFormat(t *testing.T) {
	logger, buf := newBufferLogger("", DEBUG)

	logger.Info("impl Info log")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:67	impl Info log`)

	logger.Infof("uploaded %d of %d", 30, 61)
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	INFO	logging/impl_test.go:71	uploaded 30 of 61`)

	logger.Warnw("mask size differs", "image", "fgbg_0001.png", "mask", "mask_0001.png")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	WARN	logging/impl_test.go:75	mask size differs	{"image":"fgbg_0001.png","mask":"mask_0001.png"}`)

	// Only public fields of structs are serialized.
	logger.Debugw("cleaned", "stats", maskStats{Width: 4, Height: 3, pixels: 12})
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:80	cleaned	{"stats":{"Width":4,"Height":3}}`)

	logger.Errorw("dangling", "key")
	assertLogMatches(t, buf,
		`2023-10-30T09:12:09.459Z	ERROR	logging/impl_test.go:84	dangling	{"key":"unpaired log key"}`)
}

func TestLevels(t *testing.T) {
	logger, buf := newBufferLogger("", WARN)

	logger.Info("dropped")
	logger.Debugf("dropped %d", 1)
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Error("kept")
	assertLogMatches(t, buf, `2023-10-30T09:12:09.459Z	ERROR	logging/impl_test.go:95	kept`)

	logger.SetLevel(DEBUG)
	test.That(t, logger.GetLevel(), test.ShouldEqual, DEBUG)
	logger.Debug("now kept")
	assertLogMatches(t, buf, `2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:100	now kept`)
}

func TestCDebugRespectsDebugMode(t *testing.T) {
	logger, buf := newBufferLogger("", INFO)

	logger.CDebugf(context.Background(), "hidden %s", "line")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	ctx := EnableDebugMode(context.Background(), "")
	test.That(t, IsDebugMode(ctx), test.ShouldBeTrue)
	test.That(t, len(GetName(ctx)), test.ShouldEqual, 6)

	logger.CDebugw(ctx, "visible", "batch", 2)
	assertLogMatches(t, buf, `2023-10-30T09:12:09.459Z	DEBUG	logging/impl_test.go:113	visible	{"batch":2}`)
}

func TestSublogger(t *testing.T) {
	logger, buf := newBufferLogger("modes", INFO)
	sub := logger.Sublogger("sink").Sublogger("supervisely")

	sub.Info("hello")
	output := buf.String()
	test.That(t, output, test.ShouldContainSubstring, "\tmodes.sink.supervisely\t")
	test.That(t, output, test.ShouldContainSubstring, "hello")

	// Levels are copied, not shared.
	sub.SetLevel(ERROR)
	test.That(t, logger.GetLevel(), test.ShouldEqual, INFO)
}

func TestObservedTestLogger(t *testing.T) {
	logger, logs := NewObservedTestLogger(t)
	logger.Warnw("no foreground in mask", "mask", "mask_0002.png")
	logger.Info("done")

	test.That(t, logs.FilterMessage("no foreground in mask").Len(), test.ShouldEqual, 1)
	entry := logs.FilterMessage("no foreground in mask").All()[0]
	test.That(t, entry.ContextMap()["mask"], test.ShouldEqual, "mask_0002.png")
	test.That(t, logs.Len(), test.ShouldEqual, 2)
}

func TestLevelFromString(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want Level
	}{
		{"debug", DEBUG},
		{"INFO", INFO},
		{"warning", WARN},
		{"Error", ERROR},
	} {
		t.Run(tc.in, func(t *testing.T) {
			level, err := LevelFromString(tc.in)
			test.That(t, err, test.ShouldBeNil)
			test.That(t, level, test.ShouldEqual, tc.want)
		})
	}

	_, err := LevelFromString("verbose")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, "verbose")

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
}
