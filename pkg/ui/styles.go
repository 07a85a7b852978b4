package ui

// Class names of injected nodes. Every injected node carries one of them, so
// ClassPrefix identifies our own nodes in the mutation stream.
const (
	ClassPrefix = "threads-"

	ClassWrapper      = "threads-download-wrapper"
	ClassButton       = "threads-download-btn"
	ClassMenu         = "threads-download-menu"
	ClassOverlay      = "threads-overlay-btn"
	ClassNotification = "threads-download-notification"

	ClassMenuTabs      = "threads-menu-tabs"
	ClassMenuTab       = "threads-menu-tab"
	ClassMenuContent   = "threads-menu-content"
	ClassDownloadAll   = "threads-download-all-btn"
	ClassMenuItem      = "threads-menu-item"
	ClassItemLabel     = "threads-item-label"
	ClassItemIcon      = "threads-item-download-icon"
	ClassItemThumbnail = "threads-item-thumbnail"
	ClassMenuEmpty     = "threads-menu-empty"
	ClassMenuNoMedia   = "threads-menu-no-media"
)

// Placeholders for entries without a thumbnail
const (
	videoGlyph = "🎬"
	imageGlyph = "🖼️"
)

// Icon resources
const (
	IconDownloadBlack = "image/download-black.svg"
	IconDownloadWhite = "image/download-white.svg"
)

const (
	wrapperStyle = "position: relative; display: flex; align-items: center; justify-content: center; margin-left: 6px"
	buttonStyle  = "padding: 6px 10px; border-radius: 20px; border: none; background: transparent; cursor: pointer; font-size: 16px"
	menuStyle    = "display: none; position: fixed; background: #fff; border: 1px solid #ddd; border-radius: 12px; " +
		"box-shadow: 0 4px 12px rgba(0,0,0,0.15); min-width: 200px; max-width: 300px; z-index: 999999; " +
		"padding: 8px 0; max-height: 400px; overflow-y: auto"
	iconStyle        = "width: 18px; height: 18px; vertical-align: middle"
	itemIconStyle    = "width: 12px; height: 12px"
	overlayIconStyle = "width: 20px; height: 20px"

	tabsStyle        = "display: flex; border-bottom: 2px solid #eee; padding: 0 8px"
	tabStyle         = "padding: 10px 16px; cursor: pointer; font-size: 13px; font-weight: 500; color: #666; user-select: none"
	activeTabStyle   = tabStyle + "; color: #667eea; border-bottom: 2px solid #667eea"
	contentStyle     = "max-height: 350px; overflow-y: auto"
	downloadAllStyle = "margin: 8px; padding: 12px 16px; background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); " +
		"color: white; border-radius: 8px; cursor: pointer; font-size: 14px; font-weight: 600; text-align: center"
	itemStyle         = "padding: 10px 16px; cursor: pointer; font-size: 14px; display: flex; align-items: center; gap: 10px"
	thumbnailStyle    = "width: 40px; height: 40px; border-radius: 4px; overflow: hidden; flex-shrink: 0; background: #f0f0f0; " +
		"display: flex; align-items: center; justify-content: center"
	thumbnailImgStyle = "width: 100%; height: 100%; object-fit: cover"
	glyphStyle        = "font-size: 20px"
	labelStyle        = "flex: 1; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; font-size: 12px"
	emptyStyle        = "padding: 20px; text-align: center; color: #999; font-size: 14px"
	noMediaStyle      = "padding: 12px 16px; color: #666; font-size: 14px; text-align: center"

	overlayStyle = "position: absolute; bottom: 12px; left: 12px; width: 36px; height: 36px; border-radius: 50%; " +
		"border: none; background: rgba(0, 0, 0, 0.7); cursor: pointer; display: flex; align-items: center; " +
		"justify-content: center; z-index: 100; opacity: 0; pointer-events: none"

	notificationStyle = "position: fixed; bottom: 20px; right: 20px; background: #333; color: #fff; padding: 12px 20px; " +
		"border-radius: 8px; z-index: 9999999; font-size: 14px; animation: slideIn 0.3s ease-out"
	notificationKeyframes = "@keyframes slideIn { from { transform: translateY(100%); opacity: 0; } to { transform: translateY(0); opacity: 1; } }"
)
