package mcp

import "encoding/json"

const (
	jsonRPCVersion  = "2.0"
	protocolVersion = "2024-11-05"

	codeParseError     = -32700
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
)

type MCPMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *MCPError       `json:"error,omitempty"`
}

type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type InitializeParams struct {
	ProtocolVersion string      `json:"protocolVersion"`
	Capabilities    interface{} `json:"capabilities"`
	ClientInfo      *ClientInfo `json:"clientInfo,omitempty"`
}

type ClientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type InitializeResult struct {
	ProtocolVersion string      `json:"protocolVersion"`
	Capabilities    interface{} `json:"capabilities"`
	ServerInfo      *ServerInfo `json:"serverInfo"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type ToolDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

type CallToolParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments"`
}

type ToolResult struct {
	Content []ToolContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

type ToolContent struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// Tool arguments. Amounts are decimal strings in human units.

type balanceArgs struct {
	Address      string  `json:"address"`
	TokenAddress *string `json:"token_address,omitempty"`
}

type tokenArgs struct {
	Token string `json:"token"`
}

type quoteArgs struct {
	Token  string `json:"token"`
	Side   string `json:"side"`
	Amount string `json:"amount"`
	// ExactOutput quotes the input needed to receive Amount.
	ExactOutput bool `json:"exact_output,omitempty"`
}

type buyArgs struct {
	Token           string `json:"token"`
	AmountMON       string `json:"amount_mon"`
	MinTokens       string `json:"min_tokens,omitempty"`
	SlippagePercent *int   `json:"slippage_percent,omitempty"`
	Recipient       string `json:"recipient,omitempty"`
	Deadline        uint64 `json:"deadline,omitempty"`
}

type sellArgs struct {
	Token           string      `json:"token"`
	Amount          string      `json:"amount"`
	MinMON          string      `json:"min_mon,omitempty"`
	SlippagePercent *int        `json:"slippage_percent,omitempty"`
	Recipient       string      `json:"recipient,omitempty"`
	Deadline        uint64      `json:"deadline,omitempty"`
	Permit          *permitArgs `json:"permit,omitempty"`
}

type permitArgs struct {
	V uint8  `json:"v"`
	R string `json:"r"`
	S string `json:"s"`
}

type tradeStatusArgs struct {
	TxHash string `json:"tx_hash"`
}

type QuoteResponse struct {
	Token       string `json:"token"`
	Side        string `json:"side"`
	ExactOutput bool   `json:"exact_output"`
	Router      string `json:"router"`
	IsDex       bool   `json:"is_dex"`
	Amount      string `json:"amount"`
	Raw         string `json:"raw"`
}

type RouteResponse struct {
	Token      string `json:"token"`
	Router     string `json:"router"`
	IsDex      bool   `json:"is_dex"`
	SellMethod string `json:"sell_method"`
}

type TradeResponse struct {
	TxHash        string `json:"tx_hash,omitempty"`
	State         string `json:"state"`
	Router        string `json:"router,omitempty"`
	IsDex         bool   `json:"is_dex"`
	Expected      string `json:"expected,omitempty"`
	MinAcceptable string `json:"min_acceptable,omitempty"`
}

type TradeStatusResponse struct {
	TxHash string `json:"tx_hash"`
	State  string `json:"state"`
}
