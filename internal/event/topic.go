package event

// Topic identifies a notification channel on the broker.
type Topic string

const (
	// TopicGalleryReset fires when a folder is opened or a page is
	// appended: the listing changed and placeholders should render.
	TopicGalleryReset Topic = "gallery.reset"

	// TopicGalleryItem fires once per generated thumbnail.
	TopicGalleryItem Topic = "gallery.item"

	// TopicGalleryProgress fires after every processed item.
	TopicGalleryProgress Topic = "gallery.progress"

	// TopicGalleryDone fires when a thumbnail batch completes.
	TopicGalleryDone Topic = "gallery.done"

	// TopicGalleryError fires when a folder could not be scanned.
	TopicGalleryError Topic = "gallery.error"

	// TopicDeviceChanged fires when removable volumes mount or unmount.
	TopicDeviceChanged Topic = "devices.changed"
)
