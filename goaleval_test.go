//
// Tencent is pleased to support the open source community by making goaleval available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// goaleval is licensed under the Apache License Version 2.0.
//
//

package goaleval

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/goaleval/evalresult/inmemory"
	"trpc.group/trpc-go/goaleval/evalspec"
	"trpc.group/trpc-go/goaleval/script"
	"trpc.group/trpc-go/goaleval/status"
)

type fakeAgent struct {
	response            string
	err                 error
	calls               int
	lastConversationIDs []string
	panicMsg            string
}

func (f *fakeAgent) Query(ctx context.Context, query, provider, model, conversationID string) (string, error) {
	f.calls++
	f.lastConversationIDs = append(f.lastConversationIDs, conversationID)
	if f.panicMsg != "" {
		panic(f.panicMsg)
	}
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

type fakeScripts struct {
	runErr     map[string]error
	noCheckErr map[string]error
	exitCodes  map[string]int
	runCalls   []string
}

func (f *fakeScripts) Run(ctx context.Context, scriptPath string) (*script.Outcome, error) {
	f.runCalls = append(f.runCalls, scriptPath)
	if err := f.runErr[scriptPath]; err != nil {
		return nil, err
	}
	return &script.Outcome{}, nil
}

func (f *fakeScripts) RunNoCheck(ctx context.Context, scriptPath string) (*script.Outcome, error) {
	if err := f.noCheckErr[scriptPath]; err != nil {
		return nil, err
	}
	return &script.Outcome{ExitCode: f.exitCodes[scriptPath]}, nil
}

type fakeJudge struct {
	passed bool
	err    error
}

func (f *fakeJudge) JudgeCorrectness(ctx context.Context, question, expected, actual string) (bool, error) {
	return f.passed, f.err
}

func substringEval(id string, keywords ...string) *evalspec.EvalConfig {
	return &evalspec.EvalConfig{
		EvalID:           id,
		EvalQuery:        "what is the version?",
		EvalType:         evalspec.EvalTypeSubString,
		ExpectedKeywords: keywords,
	}
}

func newTestRunner(t *testing.T, agent AgentClient, opt ...Option) *Runner {
	t.Helper()
	opt = append([]Option{
		WithScriptRunner(&fakeScripts{}),
		WithOutput(&bytes.Buffer{}),
	}, opt...)
	r, err := NewRunner("openai", "gpt-4o-mini", agent, opt...)
	require.NoError(t, err)
	return r
}

func TestNewRunnerValidation(t *testing.T) {
	_, err := NewRunner("", "model", &fakeAgent{})
	assert.Error(t, err)
	_, err = NewRunner("openai", "", &fakeAgent{})
	assert.Error(t, err)
	_, err = NewRunner("openai", "model", nil)
	assert.Error(t, err)
}

func TestRunnerSetupFailureSkipsAgent(t *testing.T) {
	agent := &fakeAgent{response: "v1.2.3"}
	scripts := &fakeScripts{runErr: map[string]error{
		"/scripts/setup.sh": errors.New("exit status 1"),
	}}
	r := newTestRunner(t, agent, WithScriptRunner(scripts))

	conv := &evalspec.ConversationConfig{
		ConversationGroup: "conv1",
		ConversationUUID:  "uuid-1",
		SetupScript:       "/scripts/setup.sh",
		Conversation: []*evalspec.EvalConfig{
			substringEval("eval1", "v1"),
			substringEval("eval2", "v1"),
		},
	}
	results := r.runConversation(context.Background(), conv)

	require.Len(t, results, 2)
	for _, result := range results {
		assert.Equal(t, status.EvalStatusError, result.Status)
		assert.Contains(t, result.Error, "setup script failed")
		assert.Empty(t, result.Response)
	}
	assert.Zero(t, agent.calls)
}

func TestRunnerCleanupFailureKeepsVerdict(t *testing.T) {
	agent := &fakeAgent{response: "version v1.2.3"}
	scripts := &fakeScripts{runErr: map[string]error{
		"/scripts/cleanup.sh": errors.New("exit status 1"),
	}}
	r := newTestRunner(t, agent, WithScriptRunner(scripts))

	conv := &evalspec.ConversationConfig{
		ConversationGroup: "conv1",
		ConversationUUID:  "uuid-1",
		CleanupScript:     "/scripts/cleanup.sh",
		Conversation:      []*evalspec.EvalConfig{substringEval("eval1", "v1.2.3")},
	}
	results := r.runConversation(context.Background(), conv)

	require.Len(t, results, 1)
	assert.Equal(t, status.EvalStatusPass, results[0].Status)
	assert.Empty(t, results[0].Error)
	assert.Equal(t, []string{"/scripts/cleanup.sh"}, scripts.runCalls)
}

func TestRunnerPropagatesConversationID(t *testing.T) {
	agent := &fakeAgent{response: "ok"}
	r := newTestRunner(t, agent)

	grouped := substringEval("eval1", "ok")
	grouped.ConversationGroup = "conv1"
	grouped.ConversationUUID = "uuid-1"
	standalone := substringEval("eval2", "ok")

	ds := &evalspec.DataSet{Conversations: []*evalspec.ConversationConfig{
		{
			ConversationGroup: "conv1",
			ConversationUUID:  "uuid-1",
			Conversation:      []*evalspec.EvalConfig{grouped},
		},
		{
			Conversation: []*evalspec.EvalConfig{standalone},
			Standalone:   true,
		},
	}}
	results, err := r.Run(context.Background(), ds)
	require.NoError(t, err)

	require.Len(t, results, 2)
	assert.Equal(t, []string{"uuid-1", ""}, agent.lastConversationIDs)
	assert.Equal(t, "uuid-1", results[0].ConversationUUID)
	assert.Empty(t, results[1].ConversationUUID)
}

func TestRunnerAgentFailureIsError(t *testing.T) {
	agent := &fakeAgent{err: errors.New("agent API error [503]: unavailable")}
	r := newTestRunner(t, agent)

	result := r.runEval(context.Background(), substringEval("eval1", "v1"))
	assert.Equal(t, status.EvalStatusError, result.Status)
	assert.Contains(t, result.Error, "503")
}

func TestRunnerRecoversPanic(t *testing.T) {
	agent := &fakeAgent{panicMsg: "boom"}
	r := newTestRunner(t, agent)

	result := r.runEval(context.Background(), substringEval("eval1", "v1"))
	require.NotNil(t, result)
	assert.Equal(t, status.EvalStatusError, result.Status)
	assert.Contains(t, result.Error, "boom")
}

func TestRunnerSavesResultsAndPrintsSummary(t *testing.T) {
	agent := &fakeAgent{response: "the version is v1.2.3"}
	manager := inmemory.New()
	var out bytes.Buffer
	r := newTestRunner(t, agent, WithResultManager(manager), WithOutput(&out))

	ds := &evalspec.DataSet{Conversations: []*evalspec.ConversationConfig{
		{Conversation: []*evalspec.EvalConfig{substringEval("eval1", "v1.2.3")}, Standalone: true},
		{Conversation: []*evalspec.EvalConfig{substringEval("eval2", "v9.9.9")}, Standalone: true},
	}}
	results, err := r.Run(context.Background(), ds)
	require.NoError(t, err)
	require.Len(t, results, 2)

	saved, err := manager.List(context.Background())
	require.NoError(t, err)
	assert.Len(t, saved, 2)

	summary := out.String()
	assert.Contains(t, summary, "EVALUATION SUMMARY")
	assert.Contains(t, summary, "Total Evaluations: 2")
	assert.Contains(t, summary, "Passed: 1")
	assert.Contains(t, summary, "Failed: 1")
	assert.Contains(t, summary, "Success Rate: 50.0%")
}
