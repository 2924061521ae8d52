package i18n

// General chat messages.
const (
	CancelTradeDeath          = "general.cancel-trade-death"
	CancelTradeCancel         = "general.cancel-trade-cancel"
	CancelTradeDecline        = "general.cancel-trade-decline"
	CancelTradeLeftWorld      = "general.cancel-trade-left-world"
	CancelTradeMovedAway      = "general.cancel-trade-moved-away"
	CancelTradePlayerLeft     = "general.cancel-trade-player-left"
	CancelTradeTimeout        = "general.cancel-trade-timeout"
	CancelServerShutdown      = "general.cancel-server-shutdown"
	NotEnoughXP               = "general.not-enough-xp"
	NoXPOffer                 = "general.no-xp-offer"
	NotEnoughMoney            = "general.not-enough-money"
	NoNegativeMoneyOffer      = "general.no-negative-money-offer"
	MaxTradeAmountReached     = "general.max-trade-amount-reached"
	CannotTradeItem           = "general.cannot-trade-item"
	InventoryFullItemsDropped = "general.inventory-full-items-dropped"
	TradeRequested            = "general.trade-requested"
	TradeRequestReceived      = "general.trade-request-received"
	PartnerAlreadyInvolved    = "general.partner-already-involved"
	NoPendingRequests         = "general.no-pending-requests"
	RequestTimedOut           = "general.request-timed-out"
	TradeAccepted             = "general.trade-accepted"
	PartnerInCreative         = "general.partner-in-creative"
	TradeConfirmed            = "general.trade-confirmed"
	TradeRequestDeclined      = "general.trade-request-declined"
	TradeDeclined             = "general.trade-declined"
)

// Trade panel labels.
const (
	ExpInfoTitle              = "inventory.exp-info-title"
	MoneyInfoTitle            = "inventory.money-info-title"
	AcceptTradeTitle          = "inventory.accept-trade-title"
	DeclineTradeTitle         = "inventory.decline-trade-title"
	TradeStatusTitle          = "inventory.trade-status-title"
	OnePlayerAccepted         = "inventory.one-player-accepted"
	WaitingForOtherPlayerLore = "inventory.waiting-for-other-player-lore"
	OfferLore                 = "inventory.offer-lore"
	AddMoneyLore              = "inventory.add-money-lore"
	AddRemoveMoneyLore        = "inventory.add-remove-money-lore"
	AddExpTitle               = "inventory.add-exp-title"
	AddExpLore                = "inventory.add-exp-lore"
	LevelInfo                 = "inventory.level-info"
)

// Command replies.
const (
	OnlyPlayer                = "command.only-player"
	NotANumber                = "command.not-a-number"
	Usage                     = "command.usage"
	InsufficientPermission    = "command.insufficient-permission"
	PartnerTooFarAway         = "command.partner-too-far-away"
	ConfigurationsReloaded    = "command.configurations-reloaded"
	NoLoreWithNumber          = "command.no-lore-with-number"
	NoItemInHand              = "command.no-item-in-hand"
	LoreApplied               = "command.lore-applied"
	PlayerNotFound            = "command.player-not-found"
	NoSelfTrade               = "command.no-self-trade"
	CannotTradeInWorld        = "command.cannot-trade-in-world"
	CannotTradeInWorldPartner = "command.cannot-trade-in-world-partner"
)
