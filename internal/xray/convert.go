package xray

import (
	"vless2json/internal/link"
	"vless2json/internal/safemap"
)

// ListenPorts carries the operator-chosen local listener ports. A zero
// value means "not supplied" and falls through to the built-in default
// during synthesis.
type ListenPorts struct {
	HTTP  int
	Socks int
}

// Defaults substituted for optional protocol fields.
const (
	defaultSocksPort = 8107
	defaultHTTPPort  = 8108
	defaultFlow      = "xtls-rprx-vision-udp443"
	defaultNetwork   = "tcp"
	defaultSecurity  = "reality"
)

const loopback = "127.0.0.1"

// Build synthesizes the complete daemon configuration for one link. It is
// a pure structural transform: every input-derived field is read through
// the fail-soft accessor with its default, everything else is a fixed
// literal, so identical inputs produce identical documents.
func Build(rec *link.Record, ports ListenPorts) *Document {
	tree := rec.AsParams()
	tree["proxies"] = map[string]any{
		"http_port":  ports.HTTP,
		"socks_port": ports.Socks,
	}
	params := safemap.Wrap(tree)

	opts := params.Field("params")

	return &Document{
		Log: Log{
			Access:   "none",
			Error:    "",
			LogLevel: "warning",
			DNSLog:   false,
		},
		Stats: Stats{},
		Policy: Policy{
			Levels: map[string]LevelPolicy{
				"0": {StatsUserUplink: true, StatsUserDownlink: true},
			},
			System: SystemPolicy{
				StatsOutboundUplink:   true,
				StatsOutboundDownlink: true,
			},
		},
		API: API{
			Tag:      "api",
			Services: []string{"StatsService"},
		},
		Inbounds: []Inbound{
			inbound("socks", params.Field("proxies").Field("socks_port").IntOr(defaultSocksPort)),
			inbound("http", params.Field("proxies").Field("http_port").IntOr(defaultHTTPPort)),
		},
		Outbounds: []Outbound{
			{
				Tag:      "proxy",
				Protocol: "vless",
				Settings: &OutboundSettings{
					Vnext: []Vnext{
						{
							Address: params.Field("server").Field("host").Str(),
							Port:    params.Field("server").Field("port").IntOr(0),
							Users: []User{
								{
									ID:         params.Field("uuid").Str(),
									Encryption: "none",
									Flow:       opts.Field("flow").StringOr(defaultFlow),
								},
							},
						},
					},
				},
				StreamSettings: &StreamSettings{
					Network:  opts.Field("type").StringOr(defaultNetwork),
					Security: opts.Field("security").StringOr(defaultSecurity),
					RealitySettings: RealitySettings{
						Fingerprint: opts.Field("fp").Str(),
						ServerName:  opts.Field("sni").Str(),
						Show:        false,
						PublicKey:   opts.Field("pbk").Str(),
						ShortID:     opts.Field("sid").Str(),
					},
				},
			},
			{
				Tag:      "direct",
				Protocol: "freedom",
				Settings: &OutboundSettings{},
			},
			{
				Tag:      "block",
				Protocol: "blackhole",
			},
		},
		Routing: Routing{
			DomainStrategy: "AsIs",
			Rules:          routingRules(),
		},
	}
}

func inbound(tag string, port int) Inbound {
	return Inbound{
		Tag:      tag,
		Port:     port,
		Listen:   loopback,
		Protocol: tag,
		Sniffing: Sniffing{
			Enabled:      true,
			DestOverride: []string{"http", "tls"},
			RouteOnly:    true,
		},
		Settings: InboundSettings{
			Auth: "noauth",
			UDP:  true,
		},
	}
}

// routingRules returns the fixed rule list. Order is priority and part of
// the output contract: api traffic, private-range blocking, bittorrent
// and tracker ports to direct, the extra-allow override, then the
// domain and geoip bypass lists.
func routingRules() []Rule {
	return []Rule{
		{
			Type:        "field",
			InboundTag:  []string{"api"},
			OutboundTag: "api",
		},
		{
			Type:        "field",
			IP:          []string{"geoip:private"},
			OutboundTag: "block",
		},
		{
			Type:        "field",
			Protocol:    []string{"bittorrent"},
			OutboundTag: "direct",
		},
		{
			Type:        "field",
			Port:        "6969,6881-6889",
			OutboundTag: "direct",
		},
		{
			Type:        "field",
			SourcePort:  "6881-6889",
			OutboundTag: "direct",
		},
		{
			Type:        "field",
			Domain:      []string{"ext:customgeo.dat:coherence-extra-exceptions"},
			OutboundTag: "proxy",
		},
		{
			Type: "field",
			Domain: []string{
				"geosite:cn",
				"domain:cn",
				"domain:xn--fiqs8s",
				"domain:xn--fiqz9s",
				"domain:xn--55qx5d",
				"domain:xn--io0a7i",
				"domain:ru",
				"domain:xn--p1ai",
				"domain:by",
				"domain:xn--90ais",
				"domain:ir",
				"ext:customgeo.dat:coherence-extra",
				"ext:customgeo.dat:coherence-extra-plus",
			},
			OutboundTag: "direct",
		},
		{
			Type: "field",
			IP: []string{
				"geoip:cn",
				"geoip:ru",
				"geoip:by",
				"geoip:ir",
			},
			OutboundTag: "direct",
		},
	}
}
