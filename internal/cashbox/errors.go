package cashbox

import "sunduqi-backend/internal/apperr"

// User-facing messages. The duplicate ones are matched by the SPA.
const (
	msgOpeningDuplicate   = "يوجد رصيد افتتاحي لهذا الفرع في هذا اليوم"
	msgTransferDuplicate  = "فشل: تم ترحيل هذا اليوم مسبقاً"
	msgMatchingDuplicate  = "تمت مطابقة الصندوق لهذا اليوم مسبقاً"
	msgDeliveryDuplicate  = "تم تسليم أو إغلاق صندوق هذا اليوم مسبقاً"
	msgAmountPositive     = "يجب أن يكون المبلغ أكبر من صفر"
	msgActualNegative     = "لا يمكن أن يكون المبلغ الفعلي سالباً"
	msgInvalidDate        = "صيغة التاريخ غير صحيحة، يجب أن تكون YYYY-MM-DD"
	msgFutureDate         = "لا يمكن استخدام تاريخ مستقبلي"
	msgInvalidMethod      = "طريقة الدفع غير صالحة (cash|visa|transfer)"
	msgVisaAttachment     = "يجب إرفاق إيصال عند الدفع بالفيزا"
	msgBranchNotFound     = "الفرع غير موجود"
	msgBranchInactive     = "الفرع غير نشط"
	msgOpeningMissing     = "يجب إدخال الرصيد الافتتاحي لهذا اليوم أولاً"
	msgOpeningNotFound    = "لا يوجد رصيد افتتاحي لهذا الفرع في هذا اليوم"
	msgOpeningMatched     = "لا يمكن حذف الرصيد الافتتاحي بعد مطابقة الصندوق"
	msgDayTransferred     = "تم ترحيل هذا اليوم إلى البنك، لا يمكن تعديل سنداته"
	msgVoucherNotFound    = "السند غير موجود"
	msgVoucherApproved    = "السند معتمد مسبقاً"
	msgVoucherImmutable   = "لا يمكن حذف سند معتمد"
	msgVoucherMatched     = "لا يمكن حذف سند بعد مطابقة الصندوق لهذا اليوم"
	msgMatchingNotFound   = "المطابقة غير موجودة"
	msgMatchingResolved   = "تمت تسوية المطابقة مسبقاً"
	msgMatchingDelivered  = "لا يمكن تعديل المطابقة بعد تسليم الصندوق"
	msgMatchingRequired   = "يجب مطابقة الصندوق قبل التسليم أو الإغلاق"
	msgInvalidMode        = "نوع التسليم غير صالح (deliver|close_only|deliver_after_closure)"
	msgDeliveryNotFound   = "التسليم غير موجود"
	msgNoClosedCashbox    = "لا يوجد صندوق مغلق لهذا اليوم"
	msgNotClosed          = "الصندوق ليس في حالة إغلاق"
	msgVerifyClosed       = "لا يمكن التحقق من صندوق مغلق قبل تسليمه"
	msgAlreadyVerified    = "تم التحقق من هذا التسليم مسبقاً"
	msgCollectUnverified  = "لا يمكن استلام النقدية قبل التحقق من التسليم"
	msgAlreadyCollected   = "تم استلام هذا التسليم مسبقاً"
	msgCollectionNotFound = "الاستلام غير موجود"
	msgCollectionVerified = "تم التحقق من هذا الاستلام مسبقاً"
	msgStaleTotals        = "تغيرت أرصدة هذا اليوم، يرجى تحديث الصفحة والمحاولة مجدداً"
	msgForbiddenRecord    = "لا يمكنك الوصول إلى هذا السجل"
)

var errForbiddenRecord = apperr.Forbidden(msgForbiddenRecord)
