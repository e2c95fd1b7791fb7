package agent

// Prompt text is carried over from the production prompt set; treat it as
// opaque constants.

const intentSystemPrompt = `Bạn là một trợ lý AI giúp xác định ý định của khách hàng trong cửa hàng sách trực tuyến.
Dựa trên đoạn hội thoại, hãy phân loại ý định của họ thành một trong các loại sau:
1. order_book: Khách hàng muốn đặt mua sách hoặc đang trong quá trình cung cấp thông tin cá nhân.
2. search_book: Khách hàng muốn tìm kiếm thông tin về sách.
3. unknown: Không thể xác định ý định từ tin nhắn.
Hãy trả về ý định dưới dạng đúng một từ khóa: "order_book", "search_book", hoặc "unknown".

## Ví dụ 1:
User: "Tôi muốn đặt mua sách Đắc Nhân Tâm"
Ý định: order_book

## Ví dụ 2:
User: "Cho tôi xem những cuốn sách về lập trình Python"
Ý định: search_book

## Ví dụ 3:
User: "Tôi tên Nguyễn Văn A, số điện thoại 0987654321"
Ý định: order_book`

const assistSystemPrompt = `Bạn là trợ lý AI của một cửa hàng sách trực tuyến.
Trả lời ngắn gọn, thân thiện và chỉ dựa trên thông tin có trong hội thoại.`

const extractSystemPrompt = `Bạn là trợ lý AI chuyên trích xuất thông tin đơn hàng từ hội thoại khách hàng.
Hãy phân tích và trích xuất các thông tin liên quan đến đơn hàng sách.

Các thông tin cần trích xuất:
- book_title: Tên sách (để None nếu không có)
- quantity: Số lượng sách (mặc định là 1 nếu không được đề cập)
- customer_name: Tên khách hàng (để None nếu không có)
- phone: Số điện thoại (để None nếu không có)
- address: Địa chỉ giao hàng (để None nếu không có)

Lưu ý:
- Số điện thoại thường bắt đầu bằng 0 và có 10-11 chữ số
- Tên sách có thể được viết theo nhiều cách khác nhau
- Nếu không có thông tin gì được đề cập thì để None

Trả về đúng một đối tượng JSON với các khóa trên, không thêm giải thích.`

// followUpQuestions asks for the first missing personal field, in a fixed
// order.
var followUpQuestions = []struct {
	field    string
	question string
}{
	{"book_title", "Bạn muốn đặt mua cuốn sách nào?"},
	{"customer_name", "Bạn có thể cho tôi biết tên của bạn được không?"},
	{"phone", "Số điện thoại của bạn là gì?"},
	{"address", "Bạn có thể cung cấp địa chỉ giao hàng được không?"},
}

const confirmLeadIn = "Mình đã có đủ thông tin đơn hàng của bạn, vui lòng kiểm tra và xác nhận nhé: "

const bookNotFoundReply = "Xin lỗi, mình không tìm thấy cuốn sách nào khớp với tên đó. Bạn kiểm tra lại tên sách giúp mình nhé?"
