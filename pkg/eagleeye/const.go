package eagleeye

// DefaultURLTemplate is the API root. {subdomain} is replaced by the brand
// subdomain of the current session.
const DefaultURLTemplate = "https://{subdomain}.eagleeyenetworks.com"

// SubdomainPlaceholder marks where the brand subdomain goes in a URL template.
const SubdomainPlaceholder = "{subdomain}"

const (
	EndpointDeviceList = "/g/device/list"
	EndpointDevice     = "/g/device"
	EndpointIsAuth     = "/g/aaa/isauth"

	endpointImage = "/asset/%s/image.jpeg"
	endpointVideo = "/asset/play/video.%s"
)

// DefaultRetries is the number of re-authentications a query may perform.
const DefaultRetries = 1

// AssetRef selects an image relative to the requested timestamp.
type AssetRef string

const (
	AssetRefPrev  AssetRef = "prev"
	AssetRefNext  AssetRef = "next"
	AssetRefAfter AssetRef = "after"
	AssetRefAsset AssetRef = "asset"
)

// AssetClass selects the kind of image asset.
type AssetClass string

const (
	AssetClassAll   AssetClass = "all"
	AssetClassPre   AssetClass = "pre"
	AssetClassThumb AssetClass = "thumb"
)

// VideoFormat is the container of a video asset.
type VideoFormat string

const (
	VideoFormatFLV VideoFormat = "flv"
	VideoFormatMP4 VideoFormat = "mp4"
)

// LiveVideoFormat is the only format live (undated) video is served in.
const LiveVideoFormat = VideoFormatFLV

const deviceKindCamera = "camera"
