package journal

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func testOperator() (*Operator, error) {
	return &Operator{Username: "deploy", UID: "1001"}, nil
}

func newTestBuilder() *Builder {
	return NewBuilder(WithClock(fixedClock()), WithUserLookup(testOperator))
}

const (
	setupResult   = `{"invocation":{"module_name":"setup"},"ansible_facts":{"ansible_env":{"HOME":"/root","USER":"root"}}}`
	commandResult = `{"invocation":{"module_name":"command"},"changed":true,"rc":0}`
	failedResult  = `{"invocation":{"module_name":"service"},"failed":true,"msg":"unit not found"}`
	yumResult     = `{"invocation":{"module_name":"yum"},"changed":true,"results":["Installed:\n  httpd-2.4.6-97","foo providing bar is already installed","Complete!"]}`
)

func TestBuilder_Web1Scenario(t *testing.T) {
	b := newTestBuilder()

	b.RegisterHost("web1")
	require.NoError(t, b.CaptureOperator())
	require.NoError(t, b.CaptureEnvironment("web1", json.RawMessage(setupResult)))
	_, err := b.RecordSuccess("web1", json.RawMessage(setupResult))
	require.NoError(t, err)
	_, err = b.RecordSuccess("web1", json.RawMessage(commandResult))
	require.NoError(t, err)
	_, err = b.RecordFailure("web1", json.RawMessage(failedResult))
	require.NoError(t, err)

	rec, ok := b.Journal().Hosts.Get("web1")
	require.True(t, ok)
	assert.Equal(t, 2, rec.SuccessCount)
	assert.Equal(t, 1, rec.FailureCount)
	require.Len(t, rec.Tasks, 3)

	positions := []int{}
	for _, task := range rec.Tasks {
		positions = append(positions, task.Position)
	}
	assert.Equal(t, []int{1, 2, 3}, positions)
	assert.Equal(t, "setup", rec.Tasks[0].Module)
	assert.Equal(t, OutcomeFailed, rec.Tasks[2].Outcome)
	assert.JSONEq(t, `{"HOME":"/root","USER":"root"}`, string(b.Journal().Environment))
}

func TestBuilder_RegisterHostIdempotent(t *testing.T) {
	b := newTestBuilder()

	first := b.RegisterHost("db1")
	_, err := b.RecordSuccess("db1", json.RawMessage(commandResult))
	require.NoError(t, err)
	second := b.RegisterHost("db1")

	assert.Same(t, first, second)
	assert.Equal(t, 1, b.Journal().Hosts.Len())
	assert.Len(t, second.Tasks, 1)
}

func TestBuilder_ImplicitRegistration(t *testing.T) {
	b := newTestBuilder()

	_, err := b.RecordFailure("never-registered", json.RawMessage(failedResult))
	require.NoError(t, err)

	rec, ok := b.Journal().Hosts.Get("never-registered")
	require.True(t, ok)
	assert.Equal(t, 1, rec.FailureCount)
	assert.Equal(t, 1, rec.Tasks[0].Position)
}

func TestBuilder_HostNormalization(t *testing.T) {
	b := newTestBuilder()

	b.RegisterHost("  web1 ")
	b.RegisterHost("web1")
	b.RegisterHost("")

	assert.Equal(t, []string{"web1", UnknownHost}, b.Journal().Hosts.Names())
}

func TestBuilder_EventSequenceInvariants(t *testing.T) {
	b := newTestBuilder()
	hosts := []string{"a", "b", "c", "b", "a", "d", "a"}

	for i, h := range hosts {
		raw := json.RawMessage(fmt.Sprintf(`{"invocation":{"module_name":"command"},"n":%d}`, i))
		if i%3 == 0 {
			_, _ = b.RecordFailure(h, raw)
		} else {
			_, _ = b.RecordSuccess(h, raw)
		}
	}

	assert.Equal(t, []string{"a", "b", "c", "d"}, b.Journal().Hosts.Names())
	for _, rec := range b.Journal().Hosts.Records() {
		assert.Equal(t, len(rec.Tasks), rec.SuccessCount+rec.FailureCount, rec.Name)
		for i, task := range rec.Tasks {
			assert.Equal(t, i+1, task.Position, rec.Name)
		}
	}
	rec, _ := b.Journal().Hosts.Get("a")
	assert.Len(t, rec.Tasks, 3)
}

func TestBuilder_CaptureOperatorOnce(t *testing.T) {
	calls := 0
	b := NewBuilder(WithUserLookup(func() (*Operator, error) {
		calls++
		return &Operator{Username: fmt.Sprintf("user-%d", calls)}, nil
	}))

	require.NoError(t, b.CaptureOperator())
	require.NoError(t, b.CaptureOperator())

	assert.Equal(t, 1, calls)
	assert.Equal(t, "user-1", b.Journal().Operator.Username)
}

func TestBuilder_CaptureOperatorFailure(t *testing.T) {
	b := NewBuilder(WithUserLookup(func() (*Operator, error) {
		return nil, errors.New("no passwd entry")
	}))

	err := b.CaptureOperator()

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Nil(t, b.Journal().Operator)
}

func TestBuilder_CaptureEnvironmentLastWriteWins(t *testing.T) {
	b := newTestBuilder()

	require.NoError(t, b.CaptureEnvironment("h1", json.RawMessage(`{"ansible_facts":{"ansible_env":{"N":"1"}}}`)))
	require.NoError(t, b.CaptureEnvironment("h2", json.RawMessage(`{"ansible_facts":{"os":"linux"}}`)))

	assert.JSONEq(t, `{"os":"linux"}`, string(b.Journal().Environment))
}

func TestBuilder_MalformedPayloadDegrades(t *testing.T) {
	b := newTestBuilder()

	entry, err := b.RecordSuccess("web1", json.RawMessage(`not json at all`))

	var buildErr *BuildError
	require.ErrorAs(t, err, &buildErr)
	assert.Equal(t, "web1", buildErr.Host)
	assert.Equal(t, `"not json at all"`, string(entry.Raw))
	assert.Equal(t, ModuleUnknown, entry.Module)

	rec, _ := b.Journal().Hosts.Get("web1")
	assert.Equal(t, 1, rec.SuccessCount)
}

func TestBuilder_PackageClassification(t *testing.T) {
	b := newTestBuilder()

	entry, err := b.RecordSuccess("web1", json.RawMessage(yumResult))
	require.NoError(t, err)

	require.NotNil(t, entry.Structured)
	assert.Equal(t, "yum", entry.Structured.Producer)
	assert.Equal(t, []string{"httpd-2.4.6-97"}, entry.Structured.Installed)
	assert.Equal(t, []string{"foo"}, entry.Structured.Ignored)
	assert.Empty(t, entry.Structured.Updated)
	assert.Contains(t, string(entry.Raw), "Complete!")
}

func TestBuilder_FailedPackageTaskNotClassified(t *testing.T) {
	b := newTestBuilder()

	entry, err := b.RecordFailure("web1", json.RawMessage(yumResult))
	require.NoError(t, err)
	assert.Nil(t, entry.Structured)
}
