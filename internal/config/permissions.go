package config

// Permission nodes checked by the trade commands.
const (
	PermTrade         = "simpletrade.trade"
	PermAccept        = "simpletrade.accept"
	PermDeny          = "simpletrade.deny"
	PermInitiateShift = "simpletrade.initiate.shift"
	PermReload        = "simpletrade.reload"
	PermSign          = "simpletrade.sign"
)
