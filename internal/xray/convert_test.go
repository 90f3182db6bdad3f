package xray

import (
	"testing"

	"vless2json/internal/link"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustParse(t *testing.T, raw string) *link.Record {
	t.Helper()
	rec, err := link.Parse(raw)
	require.NoError(t, err)
	return rec
}

func TestBuildStructure(t *testing.T) {
	doc := Build(mustParse(t, "vless://user@host:443"), ListenPorts{})

	require.Len(t, doc.Inbounds, 2)
	require.Len(t, doc.Outbounds, 3)
	require.Len(t, doc.Routing.Rules, 8)

	assert.Equal(t, "socks", doc.Inbounds[0].Tag)
	assert.Equal(t, "http", doc.Inbounds[1].Tag)
	for _, in := range doc.Inbounds {
		assert.Equal(t, "127.0.0.1", in.Listen)
		assert.True(t, in.Sniffing.Enabled)
		assert.Equal(t, []string{"http", "tls"}, in.Sniffing.DestOverride)
		assert.True(t, in.Sniffing.RouteOnly)
		assert.Equal(t, "noauth", in.Settings.Auth)
		assert.True(t, in.Settings.UDP)
	}

	assert.Equal(t, "proxy", doc.Outbounds[0].Tag)
	assert.Equal(t, "direct", doc.Outbounds[1].Tag)
	assert.Equal(t, "block", doc.Outbounds[2].Tag)
	assert.Equal(t, "freedom", doc.Outbounds[1].Protocol)
	assert.Equal(t, "blackhole", doc.Outbounds[2].Protocol)
}

func TestRoutingRuleOrderIsPriority(t *testing.T) {
	doc := Build(mustParse(t, "vless://user@host:443"), ListenPorts{})

	rules := doc.Routing.Rules
	assert.Equal(t, "AsIs", doc.Routing.DomainStrategy)

	assert.Equal(t, []string{"api"}, rules[0].InboundTag)
	assert.Equal(t, "api", rules[0].OutboundTag)

	assert.Equal(t, []string{"geoip:private"}, rules[1].IP)
	assert.Equal(t, "block", rules[1].OutboundTag)

	assert.Equal(t, []string{"bittorrent"}, rules[2].Protocol)
	assert.Equal(t, "6969,6881-6889", rules[3].Port)
	assert.Equal(t, "6881-6889", rules[4].SourcePort)

	assert.Equal(t, []string{"ext:customgeo.dat:coherence-extra-exceptions"}, rules[5].Domain)
	assert.Equal(t, "proxy", rules[5].OutboundTag)

	assert.Contains(t, rules[6].Domain, "geosite:cn")
	assert.Contains(t, rules[6].Domain, "ext:customgeo.dat:coherence-extra-plus")
	assert.Equal(t, "direct", rules[6].OutboundTag)

	assert.Equal(t, []string{"geoip:cn", "geoip:ru", "geoip:by", "geoip:ir"}, rules[7].IP)
	assert.Equal(t, "direct", rules[7].OutboundTag)
}

func TestDefaultSubstitution(t *testing.T) {
	doc := Build(mustParse(t, "vless://user@host:443"), ListenPorts{})

	proxy := doc.Outbounds[0]
	assert.Equal(t, "xtls-rprx-vision-udp443", proxy.Settings.Vnext[0].Users[0].Flow)
	assert.Equal(t, "tcp", proxy.StreamSettings.Network)
	assert.Equal(t, "reality", proxy.StreamSettings.Security)
	assert.Equal(t, "none", proxy.Settings.Vnext[0].Users[0].Encryption)
}

func TestExplicitOptionsOverrideDefaults(t *testing.T) {
	doc := Build(mustParse(t, "vless://user@host:443?flow=xtls-rprx-vision&type=grpc&security=tls"), ListenPorts{})

	proxy := doc.Outbounds[0]
	assert.Equal(t, "xtls-rprx-vision", proxy.Settings.Vnext[0].Users[0].Flow)
	assert.Equal(t, "grpc", proxy.StreamSettings.Network)
	assert.Equal(t, "tls", proxy.StreamSettings.Security)
}

func TestBlankOptionFallsThroughToDefault(t *testing.T) {
	// An explicitly cleared value reads the same as an absent one.
	doc := Build(mustParse(t, "vless://user@host:443?security="), ListenPorts{})
	assert.Equal(t, "reality", doc.Outbounds[0].StreamSettings.Security)
}

func TestListenerPortFallback(t *testing.T) {
	tests := []struct {
		name      string
		ports     ListenPorts
		wantSocks int
		wantHTTP  int
	}{
		{"neither supplied", ListenPorts{}, 8107, 8108},
		{"http only", ListenPorts{HTTP: 9999}, 8107, 9999},
		{"socks only", ListenPorts{Socks: 1090}, 1090, 8108},
		{"both supplied", ListenPorts{HTTP: 2080, Socks: 2090}, 2090, 2080},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := Build(mustParse(t, "vless://user@host:443"), tt.ports)
			assert.Equal(t, tt.wantSocks, doc.Inbounds[0].Port)
			assert.Equal(t, tt.wantHTTP, doc.Inbounds[1].Port)
		})
	}
}

func TestEndToEndSample(t *testing.T) {
	rec := mustParse(t, "vless://ABC-123@example.com:443?security=reality&sni=example.com&pbk=KEY&sid=01#MyNode")
	doc := Build(rec, ListenPorts{})

	vnext := doc.Outbounds[0].Settings.Vnext[0]
	assert.Equal(t, "example.com", vnext.Address)
	assert.Equal(t, 443, vnext.Port)
	assert.Equal(t, "ABC-123", vnext.Users[0].ID)

	stream := doc.Outbounds[0].StreamSettings
	assert.Equal(t, "reality", stream.Security)
	assert.Equal(t, "example.com", stream.RealitySettings.ServerName)
	assert.Equal(t, "KEY", stream.RealitySettings.PublicKey)
	assert.Equal(t, "01", stream.RealitySettings.ShortID)

	assert.Equal(t, 8107, doc.Inbounds[0].Port)
	assert.Equal(t, 8108, doc.Inbounds[1].Port)
}

func TestAbsentRealityFieldsStayEmpty(t *testing.T) {
	doc := Build(mustParse(t, "vless://user@host:443"), ListenPorts{})

	rs := doc.Outbounds[0].StreamSettings.RealitySettings
	assert.Equal(t, "", rs.Fingerprint)
	assert.Equal(t, "", rs.ServerName)
	assert.Equal(t, "", rs.PublicKey)
	assert.Equal(t, "", rs.ShortID)
	assert.False(t, rs.Show)
}

func TestBuildIsDeterministic(t *testing.T) {
	rec := mustParse(t, "vless://ABC-123@example.com:443?security=reality&sni=example.com&pbk=KEY&sid=01#MyNode")
	ports := ListenPorts{HTTP: 9999}

	first, err := Encode(Build(rec, ports))
	require.NoError(t, err)
	second, err := Encode(Build(rec, ports))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
