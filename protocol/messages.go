// Package protocol defines the messages exchanged between game clients and
// the server and the codecs that put them on the wire.
//
// Every message is an object whose "type" field discriminates it:
//
//	Client -> Server:
//	  join          {"type":"join","name":"...","hue":120,"skin":"classic"}
//	  input         {"type":"input","angle":1.57,"boosting":true}
//	Server -> Client:
//	  init          {"type":"init","playerId":"...","gameState":{"players":[...],"pellets":[...]}}
//	  gameState     {"type":"gameState","players":[...]}
//	  playerJoined  {"type":"playerJoined","player":{...}}
//	  playerLeft    {"type":"playerLeft","playerId":"..."}
//	  playerDied    {"type":"playerDied","playerId":"..."}
//	  pelletEaten   {"type":"pelletEaten","pelletIndex":3,"newPellet":{...}}
package protocol

// Message type identifiers (value of the "type" field).
const (
	TypeJoin  = "join"
	TypeInput = "input"

	TypeInit         = "init"
	TypeGameState    = "gameState"
	TypePlayerJoined = "playerJoined"
	TypePlayerLeft   = "playerLeft"
	TypePlayerDied   = "playerDied"
	TypePelletEaten  = "pelletEaten"
)

// ClientMessage is one of Join or Input.
type ClientMessage interface {
	clientMessage()
}

// Join asks the server to materialize a player for the sending connection.
// Hue is optional; a nil hue lets the server pick one.
type Join struct {
	Type string   `json:"type"`
	Name string   `json:"name"`
	Hue  *float64 `json:"hue,omitempty"`
	Skin string   `json:"skin,omitempty"`
}

// Input carries steering intent. Fields left out of the message keep their
// previous value on the server.
type Input struct {
	Type     string   `json:"type"`
	Angle    *float64 `json:"angle,omitempty"`
	Boosting *bool    `json:"boosting,omitempty"`
}

func (Join) clientMessage()  {}
func (Input) clientMessage() {}

// ServerMessage is one of Init, GameState, PlayerJoined, PlayerLeft,
// PlayerDied or PelletEaten.
type ServerMessage interface {
	serverMessage()
}

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type PlayerState struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Angle    float64 `json:"angle"`
	Hue      float64 `json:"hue"`
	Skin     string  `json:"skin"`
	Length   float64 `json:"length"`
	Segments []Point `json:"segments"`
	Alive    bool    `json:"alive"`
}

type PelletState struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Hue    float64 `json:"hue"`
	Radius float64 `json:"radius"`
}

type WorldState struct {
	Players []PlayerState `json:"players"`
	Pellets []PelletState `json:"pellets"`
}

// Init is sent once, only to a connection that just joined.
type Init struct {
	Type      string     `json:"type"`
	PlayerID  string     `json:"playerId"`
	GameState WorldState `json:"gameState"`
}

// GameState is the periodic full snapshot.
type GameState struct {
	Type    string        `json:"type"`
	Players []PlayerState `json:"players"`
}

type PlayerJoined struct {
	Type   string      `json:"type"`
	Player PlayerState `json:"player"`
}

type PlayerLeft struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type PlayerDied struct {
	Type     string `json:"type"`
	PlayerID string `json:"playerId"`
}

type PelletEaten struct {
	Type        string      `json:"type"`
	PelletIndex int         `json:"pelletIndex"`
	NewPellet   PelletState `json:"newPellet"`
}

func (Init) serverMessage()         {}
func (GameState) serverMessage()    {}
func (PlayerJoined) serverMessage() {}
func (PlayerLeft) serverMessage()   {}
func (PlayerDied) serverMessage()   {}
func (PelletEaten) serverMessage()  {}

// TypeOf returns the wire type of a server message, or "" if m is not one of
// the known variants.
func TypeOf(m ServerMessage) string {
	switch m.(type) {
	case Init:
		return TypeInit
	case GameState:
		return TypeGameState
	case PlayerJoined:
		return TypePlayerJoined
	case PlayerLeft:
		return TypePlayerLeft
	case PlayerDied:
		return TypePlayerDied
	case PelletEaten:
		return TypePelletEaten
	}
	return ""
}

// stamp returns m with its Type field set.
func stamp(m ServerMessage) (ServerMessage, bool) {
	switch v := m.(type) {
	case Init:
		v.Type = TypeInit
		return v, true
	case GameState:
		v.Type = TypeGameState
		return v, true
	case PlayerJoined:
		v.Type = TypePlayerJoined
		return v, true
	case PlayerLeft:
		v.Type = TypePlayerLeft
		return v, true
	case PlayerDied:
		v.Type = TypePlayerDied
		return v, true
	case PelletEaten:
		v.Type = TypePelletEaten
		return v, true
	}
	return nil, false
}
