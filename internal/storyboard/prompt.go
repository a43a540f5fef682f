package storyboard

// systemPrompt instructs the model to produce the storyboard frame
// list. The narration and visuals are Chinese, the motion prompt is
// English for the downstream image-to-video model.
const systemPrompt = `你是一位科普短视频编导。阅读用户提供的论文全文，` +
	`将其改编为大约 10 帧的竖屏短视频分镜脚本。输出一个 JSON 数组，` +
	`数组中每个对象仅包含以下字段：

- frame_id: 从 1 开始递增的整数编号
- title_cn: 该帧的简短中文标题
- voiceover_script_cn: 该帧的中文旁白脚本，口语化，一到三句
- visual_description_cn: 用于文生图的中文画面描述，具体且可视化
- img2vid_motion_prompt_en: 用于图生视频的英文运镜与动效提示词

只输出 JSON 数组本身，不要代码块标记，不要任何解释或多余文本。`

// strictRetryInstruction is appended on the single retry after the
// first response failed to parse.
const strictRetryInstruction = `上一次输出不是合法 JSON。请严格输出 JSON 数组，` +
	`仅包含字段 frame_id/title_cn/voiceover_script_cn/visual_description_cn/img2vid_motion_prompt_en，` +
	`不要任何解释或多余文本。`

// maxDocumentRunes caps the document text sent to the model so very
// long papers stay inside the context window.
const maxDocumentRunes = 60000
