package alerts

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRaiseQueuesAlert(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client, "ops@modelpay.dev")

	mock.Regexp().ExpectLPush(queueKey, `.*unknown_webhook_record.*`).SetVal(1)

	err := svc.Raise(context.Background(), KindUnknownWebhookRecord, "unknown recharge", "request_id=ghost")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRaiseRedisDown(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client, "ops@modelpay.dev")

	mock.Regexp().ExpectLPush(queueKey, `.*`).SetErr(assert.AnError)

	err := svc.Raise(context.Background(), KindProviderDown, "provider down", "timeout")
	assert.Error(t, err)
}

func TestQueueLength(t *testing.T) {
	client, mock := redismock.NewClientMock()
	svc := NewWithClient(client, "ops@modelpay.dev")

	mock.ExpectLLen(queueKey).SetVal(3)

	assert.Equal(t, int64(3), svc.QueueLength(context.Background()))
}

func TestAlertRoundTrip(t *testing.T) {
	alert := Alert{Kind: KindCreditFailure, Subject: "credit failed", Detail: "recharge rec-1"}

	data, err := json.Marshal(alert)
	require.NoError(t, err)

	var decoded Alert
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, KindCreditFailure, decoded.Kind)
}
