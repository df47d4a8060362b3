package model_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gh0stWires/T-800-server/core"
	"github.com/Gh0stWires/T-800-server/model"
)

func TestMockModelStreaming(t *testing.T) {
	mdl := model.NewMockModel()
	mdl.SetDeltas("a", "b", "c")

	respCh, errCh := mdl.Generate(context.Background(), model.Request{Stream: true})

	var partials []string
	var final model.Response
	for resp := range respCh {
		if resp.Partial {
			partials = append(partials, resp.Text)
			continue
		}
		final = resp
	}
	if err := <-errCh; err != nil {
		t.Fatalf("generate: %v", err)
	}

	if strings.Join(partials, "") != "abc" {
		t.Errorf("partials = %v", partials)
	}
	if final.Text != "abc" || final.FinishReason != "stop" {
		t.Errorf("final chunk must carry the accumulated text, got %+v", final)
	}
	if mdl.Calls != 1 {
		t.Errorf("Calls = %d", mdl.Calls)
	}
}

func TestMockModelCompletion(t *testing.T) {
	mdl := model.NewMockModel()
	mdl.SetCompletion("done")

	respCh, errCh := mdl.Generate(context.Background(), model.Request{})
	resp := <-respCh
	if err := <-errCh; err != nil {
		t.Fatalf("generate: %v", err)
	}
	if resp.Partial || resp.Text != "done" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestMockModelEchoesLastUserMessage(t *testing.T) {
	mdl := model.NewMockModel()
	respCh, errCh := mdl.Generate(context.Background(), model.Request{
		Messages: []core.Message{
			{Role: "system", Content: "persona"},
			{Role: core.RoleUser, Content: "first"},
			{Role: core.RoleUser, Content: "second"},
		},
	})
	resp := <-respCh
	if err := <-errCh; err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !strings.Contains(resp.Text, "second") {
		t.Errorf("unconfigured mock should echo the last user message, got %q", resp.Text)
	}
}

func TestMockModelFailure(t *testing.T) {
	boom := errors.New("boom")
	mdl := model.NewMockModel()
	mdl.FailWith(boom)

	respCh, errCh := mdl.Generate(context.Background(), model.Request{Stream: true})
	for range respCh {
		t.Fatal("no responses expected on failure")
	}
	if err := <-errCh; !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
}
