package constants

const (
	PointsCorrectGuess = 100
	PointsActorBonus   = 50
	PointsTimeBonus    = 10
	PointsPositionStep = 20
	RoundTimeSeconds   = 60
	WordChoiceCount    = 3
	RoundsPerPlayer    = 2
	MinPlayers         = 2
)

const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Room codes use the XXXX-XXXX format with a confusion-free alphabet
// (no I, O, 0, 1).
const (
	RoomCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	RoomCodePartLen  = 4
)

// Inbound socket event types.
const (
	EventJoinGame     = "join-game"
	EventLeaveGame    = "leave-game"
	EventPlayerReady  = "player-ready"
	EventStartGame    = "start-game"
	EventSelectWord   = "select-word"
	EventSubmitGuess  = "submit-guess"
	EventRequestHint  = "request-hint"
	EventTimeUp       = "time-up"
	EventChatMessage  = "chat-message"
	EventOffer        = "offer"
	EventAnswer       = "answer"
	EventIceCandidate = "ice-candidate"
)

// Outbound socket event types.
const (
	EventConnected         = "connected"
	EventError             = "error"
	EventGameState         = "game-state"
	EventPlayerJoined      = "player-joined"
	EventPlayerLeft        = "player-left"
	EventPlayerReadyUpdate = "player-ready-update"
	EventGameStarted       = "game-started"
	EventWordChoices       = "word-choices"
	EventRoundStarted      = "round-started"
	EventYourWord          = "your-word"
	EventGuessMade         = "guess-made"
	EventCorrectGuess      = "correct-guess"
	EventHint              = "hint"
	EventRoundEnded        = "round-ended"
	EventNextRound         = "next-round"
	EventGameOver          = "game-over"
)

// Reason codes for structured refusals.
const (
	ErrorCodeRoomNotFound   = "room_not_found"
	ErrorCodeMissingFields  = "missing_fields"
	ErrorCodeNotYourTurn    = "not_your_turn"
	ErrorCodeNoActiveRound  = "no_active_round"
	ErrorCodeActorCantGuess = "actor_cant_guess"
	ErrorCodeNotInGame      = "not_in_game"
	ErrorCodeAlreadyGuessed = "already_guessed"
	ErrorCodeCantStart      = "cant_start"
	ErrorCodeRateLimited    = "rate_limited"
)

type contextKey string

const (
	RequestIDKey contextKey = "request_id"
)
