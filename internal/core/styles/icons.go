package styles

var (
	IconUnread  = "●"
	IconRead    = "○"
	IconLive    = "◉"
	IconPolling = "↻"
	IconOffline = "✕"
)
