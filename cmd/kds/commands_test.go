package main

import (
	"bytes"
	"testing"
	"time"

	"qr-kitchen/internal/kdsclient"
	"qr-kitchen/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestPrintBoard(t *testing.T) {
	pizza := "Pizza"
	table := "T4"
	now := time.Now()

	update := kdsclient.Update{
		Source: kdsclient.ModePolling,
		At:     now,
		Orders: []model.Order{
			{
				ID: "bbbbbbbbbbbbbbbbbbbbbbbbbbbbbbbb", Status: model.StatusReady, CreatedAt: now.Add(-time.Minute),
				Items: []model.OrderItem{{ProductID: 3, Quantity: 1, Station: "bar"}},
			},
			{
				ID: "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa", Status: model.StatusPending, TableNumber: &table, CreatedAt: now.Add(-time.Hour),
				Items: []model.OrderItem{{ProductID: 1, Name: &pizza, Quantity: 2, Station: "oven"}},
			},
		},
	}

	var all bytes.Buffer
	printBoard(&all, update, "")
	out := all.String()
	assert.Contains(t, out, "via polling: 2 active")
	assert.Contains(t, out, "2x Pizza")
	assert.Contains(t, out, "1x #3")
	assert.Less(t, bytes.Index(all.Bytes(), []byte("aaaaaaaa")), bytes.Index(all.Bytes(), []byte("bbbbbbbb")))

	var oven bytes.Buffer
	printBoard(&oven, update, "oven")
	assert.Contains(t, oven.String(), "aaaaaaaa")
	assert.NotContains(t, oven.String(), "bbbbbbbb")
}

func TestAdvance_RejectsUnknownStatus(t *testing.T) {
	cmd := advanceCmd()
	cmd.SetArgs([]string{"abc", "bogus"})
	cmd.PersistentFlags().String("server", "http://127.0.0.1:1", "")
	cmd.PersistentFlags().String("token", "", "")
	cmd.PersistentFlags().String("log-level", "error", "")
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})

	err := cmd.Execute()
	assert.ErrorContains(t, err, `unknown status "bogus"`)
}
