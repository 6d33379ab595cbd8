package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/dalemusser/guardian/internal/app/system/events"
	"github.com/dalemusser/guardian/internal/domain/models"
	"github.com/dalemusser/guardian/internal/testutil"
	"go.uber.org/zap"
)

func TestNATSSink_PublishesOnSubject(t *testing.T) {
	_, nc := testutil.StartEmbeddedNATS(t)

	sink := events.NewNATSSink(nc, "guardian.")
	sub, err := nc.SubscribeSync("guardian.officer-assigned")
	if err != nil {
		t.Fatalf("SubscribeSync: %v", err)
	}
	if err := nc.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	bus := events.NewBus(zap.NewNop(), sink)
	payload := events.OfficerAssignedPayload{
		Officer:  models.Officer{Name: "Ana"},
		Incident: models.Incident{Description: "flood"},
	}
	if err := bus.Publish(context.Background(), events.New(events.OfficerAssigned, payload)); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	msg, err := sub.NextMsg(2 * time.Second)
	if err != nil {
		t.Fatalf("NextMsg: %v", err)
	}
	var got events.OfficerAssignedPayload
	if err := json.Unmarshal(msg.Data, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.Officer.Name != "Ana" || got.Incident.Description != "flood" {
		t.Errorf("payload = %+v", got)
	}
}

func TestNATSSink_CanceledContext(t *testing.T) {
	_, nc := testutil.StartEmbeddedNATS(t)
	sink := events.NewNATSSink(nc, "guardian.")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sink.Send(ctx, events.OfficerUpdated, []byte(`{}`)); err == nil {
		t.Error("expected error for canceled context")
	}
}

func TestRedisSink_PublishesOnChannel(t *testing.T) {
	client := testutil.SetupTestRedis(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	sink := events.NewRedisSink(client, "guardian:test:")
	ps := client.Subscribe(ctx, sink.Channel(events.OfficerUpdated))
	defer ps.Close()
	if _, err := ps.Receive(ctx); err != nil {
		t.Fatalf("subscribe confirmation: %v", err)
	}

	if err := sink.Send(ctx, events.OfficerUpdated, []byte(`{"name":"Ana"}`)); err != nil {
		t.Fatalf("Send: %v", err)
	}

	select {
	case msg := <-ps.Channel():
		if msg.Payload != `{"name":"Ana"}` {
			t.Errorf("payload = %q", msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for redis message")
	}
}
