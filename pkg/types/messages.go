package types

// Client -> Server (all as {"type": "...", ...fields})
//
// joinWaitingRoom:
//   lobbyId: string
//   playerId: string
//   name: string
//
// setReady:
//   playerId: string
//   isReady: boolean
//
// updatePlayerColor:
//   playerId: string
//   color: string | null
//
// updateGameSettings (owner only):
//   playerId: string
//   turnTime: number (seconds)
//   gameMode: 1 (marathon) | 2 (hide & seek)
//
// startGame (owner only, all players ready):
//   playerId: string
//
// joinGame (reconnect mid-round):
//   playerId: string
//   name: string
//
// selectHideSeekItem (selection phase):
//   playerId: string
//   itemId: number
//   itemName: string
//
// buttonPress (current-turn player only):
//   playerId: string
//   correct: boolean
//   timeout: boolean
//   itemId: number
//
// returnToWaitingRoom / leaveGame / leaveLobby:
//   playerId: string
//
// switchLobby (leave the bound lobby, join another):
//   newLobbyId: string
//   playerId: string
//   name: string

// Server -> Client (all as {"event": "...", "data": {...}})
//
// lobbyUpdate: full lobby snapshot (waiting group)
// countdown: { timeLeft }
// gameStarted: { firstTurnPlayerId, firstTurnPlayerName, turnTime, gameMode }
// selectionPhase: { playersSelections, hasDuplicateItems? }
// selectionCountdown: { timeLeft }
// selectionComplete: { playerItems, firstTurnPlayerId, firstTurnPlayerName }
// selectionFailed: { reason }
// turnChanged: { currentTurnId, currentTurnName, timeLeft }
// itemSolved: { itemId, solvedBy, isHideSeekItem }
// playerEliminated: { eliminatedPlayerId, reason }
// playerLeft: { playerId, playerName }
// gameOver: { winner } // winner is null when nobody survived
// colorUpdateFailed: { reason }
// gameSettingsUpdated: { turnTime, gameMode }
// initItems: { solvedItems, players }
