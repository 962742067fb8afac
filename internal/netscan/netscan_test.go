package netscan

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/go-tangra/go-tangra-sysinventory/internal/runner"
)

const sampleReport = `Starting Nmap 7.93 ( https://nmap.org ) at 2024-03-05 14:07 CET
Nmap scan report for 127.0.0.1
Host is up (0.000070s latency).
Not shown: 1022 closed tcp ports (conn-refused)
PORT   STATE SERVICE VERSION
22/tcp open  ssh     OpenSSH 8.4
Service detection performed.
`

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseReport_Sample(t *testing.T) {
	hosts := ParseReport(sampleReport)
	require.Len(t, hosts, 1)
	h := hosts["127.0.0.1"]
	require.NotNil(t, h)
	assert.Equal(t, StateActive, h.State)
	assert.Equal(t, []Port{{Port: "22", Protocol: "tcp", State: "open", Service: "ssh", Version: "OpenSSH 8.4"}}, h.Ports)
}

func TestParseReport_MultipleHosts(t *testing.T) {
	out := `Nmap scan report for router.lan (192.168.1.1)
Host is up (0.0021s latency).
53/udp  open          domain
80/tcp  filtered      http
Nmap scan report for 192.168.1.20
443/tcp open https nginx 1.18.0 (Ubuntu)
`
	hosts := ParseReport(out)
	require.Len(t, hosts, 2)

	router := hosts["192.168.1.1"]
	require.NotNil(t, router)
	assert.Equal(t, StateActive, router.State)
	require.Len(t, router.Ports, 2)
	assert.Equal(t, Port{Port: "53", Protocol: "udp", State: "open", Service: "domain", Version: "unknown"}, router.Ports[0])
	assert.Equal(t, "filtered", router.Ports[1].State)

	other := hosts["192.168.1.20"]
	require.NotNil(t, other)
	assert.Equal(t, StateUnknown, other.State)
	assert.Equal(t, "nginx 1.18.0 (Ubuntu)", other.Ports[0].Version)
}

func TestParseReport_PortBeforeHostIgnored(t *testing.T) {
	assert.Empty(t, ParseReport("22/tcp open ssh\n"))
}

func TestRecord_JSONPlacement(t *testing.T) {
	rec := Record{
		Hosts:   ParseReport(sampleReport),
		Command: "nmap -p 0-1023 -sV 127.0.0.1",
	}
	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"127.0.0.1": {"state": "Active", "ports": [
			{"port": "22", "protocol": "tcp", "state": "open", "service": "ssh", "version": "OpenSSH 8.4"}
		]},
		"command": "nmap -p 0-1023 -sV 127.0.0.1"
	}`, string(data))

	var back Record
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, rec.Command, back.Command)
	assert.Equal(t, []string{"127.0.0.1"}, back.Addresses())
	assert.Empty(t, back.Error)
}

func TestScan(t *testing.T) {
	r := runner.NewFake().On(sampleReport, "nmap", Args("127.0.0.1", "0-1023")...)
	rec := NewScanner(r, quiet()).Scan(context.Background(), "", "")

	assert.Equal(t, "nmap -p 0-1023 -sV 127.0.0.1", rec.Command)
	assert.Empty(t, rec.Error)
	require.Contains(t, rec.Hosts, "127.0.0.1")
	assert.Equal(t, []string{"nmap -p 0-1023 -sV 127.0.0.1"}, r.Calls())
}

func TestScan_ToolMissing(t *testing.T) {
	rec := NewScanner(runner.NewFake(), quiet()).Scan(context.Background(), "10.0.0.5", "22,80")

	assert.Equal(t, "nmap not available", rec.Error)
	assert.Equal(t, "nmap -p 22,80 -sV 10.0.0.5", rec.Command)
	assert.Empty(t, rec.Hosts)

	data, err := json.Marshal(rec)
	require.NoError(t, err)
	assert.JSONEq(t, `{"command": "nmap -p 22,80 -sV 10.0.0.5", "error": "nmap not available"}`, string(data))
}

func TestScan_NoHosts(t *testing.T) {
	r := runner.NewFake().On("Note: Host seems down.", "nmap", Args("10.0.0.9", "0-1023")...)
	rec := NewScanner(r, quiet()).Scan(context.Background(), "10.0.0.9", "")
	assert.Equal(t, "no hosts found in scan report", rec.Error)
}
